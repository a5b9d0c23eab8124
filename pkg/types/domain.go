package types

// Model represents a model file found in the models directory.
type Model struct {
	// Stable identifier for the model (file name).
	// example: ggml-alpaca-7b-q4.bin
	ID string `json:"id" example:"ggml-alpaca-7b-q4.bin"`
	// Human-friendly name.
	// example: ggml-alpaca-7b-q4
	Name string `json:"name" example:"ggml-alpaca-7b-q4"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/ggml-alpaca-7b-q4.bin
	Path string `json:"path" example:"/home/user/models/ggml-alpaca-7b-q4.bin"`
	// File size in bytes.
	// example: 4212859520
	SizeBytes int64 `json:"size_bytes" example:"4212859520"`
}
