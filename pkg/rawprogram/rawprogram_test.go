package rawprogram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleXML = `<?xml version="1.0" ?>
<data>
  <!--NOTE: This is an ** Autogenerated file **-->
  <program SECTOR_SIZE_IN_BYTES="4096" file_sector_offset="0" filename="super_1.img" label="super" num_partition_sectors="2359296" physical_partition_number="0" sparse="true" start_byte_hex="0x1b8e000" start_sector="7054"/>
  <program SECTOR_SIZE_IN_BYTES="4096" file_sector_offset="0" filename="" label="misc" num_partition_sectors="256" physical_partition_number="0" sparse="false" start_sector="6"/>
  <program file_sector_offset="0" filename="gpt_main0.bin" label="PrimaryGPT" num_partition_sectors="6" physical_partition_number="0" sparse="false" start_sector="0"/>
  <program SECTOR_SIZE_IN_BYTES="4096" filename="gpt_backup0.bin" label="BackupGPT" num_partition_sectors="5" physical_partition_number="0" sparse="false" start_sector="NUM_DISK_SECTORS-5."/>
</data>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawprogram0.xml")
	writeFile(t, path, sampleXML)

	got, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Entry{
		{Label: "super", Filename: "super_1.img", StartSector: 7054, NumSectors: 2359296, LUN: 0, SectorSize: 4096, Sparse: true},
		{Label: "PrimaryGPT", Filename: "gpt_main0.bin", StartSector: 0, NumSectors: 6, LUN: 0, SectorSize: DefaultSectorSize},
		{Label: "BackupGPT", Filename: "gpt_backup0.bin", StartSector: 0, NumSectors: 5, LUN: 0, SectorSize: 4096},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if b := got[0].Bytes(); b != 2359296*4096 {
		t.Errorf("Bytes = %d", b)
	}
}

func TestParse_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Parse(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.xml")
	writeFile(t, bad, "<data><program filename=")
	if _, err := Parse(bad); err == nil {
		t.Error("expected error for malformed XML")
	}

	badNum := filepath.Join(dir, "badnum.xml")
	writeFile(t, badNum, `<data><program filename="a.img" start_sector="x"/></data>`)
	if _, err := Parse(badNum); err == nil {
		t.Error("expected error for non-numeric start_sector")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	images := filepath.Join(root, "IMAGES")
	for _, name := range []string{
		"rawprogram1.xml",
		"rawprogram0.xml",
		"rawprogram0_BLANK_GPT.xml",
		"rawprogram0_WIPE_PARTITIONS.xml",
		"patch0.xml",
	} {
		writeFile(t, filepath.Join(images, name), "<data/>")
	}
	// Root-level descriptors are ignored when IMAGES exists.
	writeFile(t, filepath.Join(root, "rawprogram9.xml"), "<data/>")

	got, err := Find(root)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []string{
		filepath.Join(images, "rawprogram0.xml"),
		filepath.Join(images, "rawprogram1.xml"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_FallsBackToRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "rawprogram0.xml"), "<data/>")

	got, err := Find(root)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "rawprogram0.xml" {
		t.Errorf("Find = %v", got)
	}
}

func TestFind_GlobCharsInRoot(t *testing.T) {
	for _, name := range []string{"rom[EU]", "rom[bad", "rom?x*"} {
		root := filepath.Join(t.TempDir(), name)
		want := filepath.Join(root, "IMAGES", "rawprogram0.xml")
		writeFile(t, want, "<data/>")

		got, err := Find(root)
		if err != nil {
			t.Fatalf("Find(%s): %v", name, err)
		}
		if diff := cmp.Diff([]string{want}, got); diff != "" {
			t.Errorf("Find(%s) mismatch (-want +got):\n%s", name, diff)
		}
	}
}
