package ffmpeg

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultPreset     = "fast"
	DefaultVideoCodec = "libx264"
	DefaultScale      = "1280:720"
)

// ReencodeOptions configures the rescale/re-encode pass applied to every
// downloaded clip before overlay burn-in.
type ReencodeOptions struct {
	Input        string
	Output       string
	Scale        string
	VideoCodec   string
	Preset       string
	ProgressFunc ProgressFunc
}
