// Package deps describes the system tools and files a session needs and
// reports whether they are present. Installing them is left to the user.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/foxseedlab/meetingbuddy/internal/config"
)

type Kind int

const (
	KindCommand Kind = iota
	KindDirectory
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Dependency is an immutable description of one requirement. Target is a
// command name for KindCommand and a path otherwise.
type Dependency struct {
	Name     string
	Kind     Kind
	Target   string
	Optional bool
	Hint     string
}

type Status struct {
	Dependency
	Present bool
	// Resolved is the absolute path of a command found on PATH.
	Resolved string
	Err      error
}

var ErrMissing = errors.New("missing dependency")

// Required lists what a session needs for cfg, in the order it is checked.
func Required(cfg *config.Config) []Dependency {
	return []Dependency{
		{Name: "git", Kind: KindCommand, Target: "git", Hint: "used to fetch whisper.cpp"},
		{Name: "sdl2", Kind: KindCommand, Target: "sdl2-config", Hint: "brew install sdl2, or apt install libsdl2-dev; the stream binary captures audio through SDL2"},
		{Name: "whisper.cpp", Kind: KindDirectory, Target: cfg.WhisperDir(), Hint: "git clone https://github.com/ggerganov/whisper.cpp " + cfg.WhisperDir()},
		{Name: "whisper stream", Kind: KindFile, Target: cfg.WhisperBinaryPath(), Hint: "cmake -B build -DWHISPER_SDL2=ON && cmake --build build --config Release"},
		{Name: "whisper model " + cfg.WhisperModel, Kind: KindFile, Target: cfg.ModelPath(), Hint: "bash ./models/download-ggml-model.sh " + cfg.WhisperModel},
		{Name: "bat", Kind: KindCommand, Target: "bat", Optional: true, Hint: "optional viewer for transcript logs"},
	}
}

func Check(d Dependency) Status {
	st := Status{Dependency: d}
	switch d.Kind {
	case KindCommand:
		path, err := exec.LookPath(d.Target)
		if err != nil {
			st.Err = err
			return st
		}
		st.Present = true
		st.Resolved = path
	case KindDirectory, KindFile:
		info, err := os.Stat(d.Target)
		if err != nil {
			st.Err = err
			return st
		}
		if wantDir := d.Kind == KindDirectory; info.IsDir() != wantDir {
			st.Err = fmt.Errorf("%s is not a %s", d.Target, d.Kind)
			return st
		}
		st.Present = true
	default:
		st.Err = fmt.Errorf("unknown dependency kind %s", d.Kind)
	}
	return st
}

func CheckAll(list []Dependency) []Status {
	out := make([]Status, 0, len(list))
	for _, d := range list {
		out = append(out, Check(d))
	}
	return out
}

// Verify returns ErrMissing naming every absent non-optional dependency.
func Verify(statuses []Status) error {
	var missing []string
	for _, st := range statuses {
		if !st.Present && !st.Optional {
			missing = append(missing, st.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
}
