package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/eunmann/superforge/pkg/procexec"
	"github.com/eunmann/superforge/pkg/sparse"
	"github.com/eunmann/superforge/pkg/superdef"
	"github.com/eunmann/superforge/pkg/toolloc"
)

const (
	fakeConverter = "/tools/simg2img"
	fakePacker    = "/tools/lpmake"
)

var fakeTools = toolloc.Static{
	toolloc.Converter: fakeConverter,
	toolloc.Packer:    fakePacker,
}

// fakeExecutor stands in for the converter and packer. By default the
// converter writes a raw file of rawSize bytes and the packer writes a
// superSize-byte output; responses can be overridden per tool.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []procexec.Command

	rawSize   int
	superSize int

	// convert and pack, when set, replace the default behavior.
	convert func(cmd procexec.Command) (procexec.Result, error)
	pack    func(cmd procexec.Command) (procexec.Result, error)
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{rawSize: 8192, superSize: 65536}
}

func (f *fakeExecutor) Run(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	switch cmd.Path {
	case fakeConverter:
		if f.convert != nil {
			return f.convert(cmd)
		}
		if len(cmd.Args) != 2 {
			return procexec.Result{ExitCode: 2, Stderr: "usage: simg2img <sparse> <raw>"}, nil
		}
		if err := os.WriteFile(cmd.Args[1], make([]byte, f.rawSize), 0644); err != nil {
			return procexec.Result{ExitCode: 1, Stderr: err.Error()}, nil
		}
		return procexec.Result{}, nil
	case fakePacker:
		if f.pack != nil {
			return f.pack(cmd)
		}
		out := argAfter(cmd.Args, "--output")
		if err := os.WriteFile(out, make([]byte, f.superSize), 0644); err != nil {
			return procexec.Result{ExitCode: 1, Stderr: err.Error()}, nil
		}
		return procexec.Result{}, nil
	}
	return procexec.Result{}, fmt.Errorf("exec: %q: executable file not found", cmd.Path)
}

func (f *fakeExecutor) callsTo(path string) []procexec.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []procexec.Command
	for _, c := range f.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func argValues(args []string, flag string) []string {
	var out []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			out = append(out, args[i+1])
		}
	}
	return out
}

// recorder is an Observer that keeps every event.
type recorder struct {
	logs     []Event
	progress [][2]int
}

func (r *recorder) OnLog(level Level, message string) {
	r.logs = append(r.logs, Event{Kind: LogEvent, Level: level, Message: message})
}

func (r *recorder) OnProgress(current, total int) {
	r.progress = append(r.progress, [2]int{current, total})
}

func (r *recorder) count(level Level) int {
	n := 0
	for _, e := range r.logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// romFixture lays out a ROM root with IMAGES/ and returns its path.
type romFixture struct {
	t    *testing.T
	root string
}

func newROM(t *testing.T) *romFixture {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "IMAGES"), 0755); err != nil {
		t.Fatal(err)
	}
	return &romFixture{t: t, root: root}
}

func (r *romFixture) sparseImage(rel string) {
	r.t.Helper()
	data := append(sparse.EncodeHeader(sparse.Header{
		MajorVersion: 1, FileHeaderSize: 28, ChunkHeaderSize: 12,
		BlockSize: 4096, TotalBlocks: 2, TotalChunks: 1,
	}), make([]byte, 64)...)
	r.write(rel, data)
}

func (r *romFixture) rawImage(rel string, size int) {
	r.t.Helper()
	r.write(rel, make([]byte, size))
}

func (r *romFixture) write(rel string, data []byte) {
	r.t.Helper()
	path := filepath.Join(r.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.t.Fatal(err)
	}
}

func (r *romFixture) output() string {
	return filepath.Join(r.root, "IMAGES", "super.img")
}

const mib = 1024 * 1024

// threePartitionConfig is A(100MiB,g1,a.img), B(50MiB,g1,b.img),
// C(10MiB,default,no path).
func threePartitionConfig() *superdef.SuperBuildConfig {
	return &superdef.SuperBuildConfig{
		BlockSize:       4096,
		Alignment:       mib,
		DeviceSizeBytes: 1024 * mib,
		Groups: []superdef.GroupSpec{
			{Name: "default", MaximumSizeBytes: 0},
			{Name: "g1", MaximumSizeBytes: 512 * mib},
		},
		Partitions: []superdef.PartitionSpec{
			{Name: "A", SourcePath: "IMAGES/a.img", SizeBytes: 100 * mib, GroupName: "g1", IsDynamic: true},
			{Name: "B", SourcePath: "IMAGES/b.img", SizeBytes: 50 * mib, GroupName: "g1", IsDynamic: true},
			{Name: "C", SizeBytes: 10 * mib, GroupName: "default", IsDynamic: true},
		},
		RegionID:    "10000010",
		RegionLabel: "Test",
	}
}
