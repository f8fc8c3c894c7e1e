// Package vision turns a captured photo into a short spoken-friendly description.
//
// The Describer talks to an Azure OpenAI chat-completions deployment with a
// fixed system instruction aimed at visually impaired users. Retries on
// rate limits and server errors happen here, never in the caller.
//
// Example usage:
//
//	d, _ := vision.NewAzure(
//	    vision.WithEndpoint(os.Getenv("AZURE_OPENAI_ENDPOINT")),
//	    vision.WithAPIKey(os.Getenv("AZURE_OPENAI_API_KEY")),
//	    vision.WithDeployment(os.Getenv("AZURE_OPENAI_DEPLOYMENT")),
//	)
//	defer d.Close()
//
//	res, _ := d.Describe(ctx, jpegBytes)
//	fmt.Println(res.Text)
package vision

import "context"

// SystemInstruction is sent as the system role on every request.
const SystemInstruction = "You are a device that helps visually impaired people recognize objects. " +
	"Describe the pictures so that it is as understandable as possible for visually impaired people. " +
	"Limit your answer to two to three sentences. Only describe the most important part in the image."

// UserPrompt accompanies the image in the user turn.
const UserPrompt = "Describe this image:"

// Describer produces a description of an encoded image.
type Describer interface {
	// Describe sends image bytes (JPEG) to the service and returns its text.
	Describe(ctx context.Context, image []byte) (*Result, error)

	// Health checks connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the describer.
	Close() error
}

// Result is a completed description.
type Result struct {
	// Text is the description, trimmed of surrounding whitespace.
	Text string

	// FinishReason is "stop" normally and "length" when the token cap cut it short.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Truncated reports whether the token cap ended the description early.
func (r *Result) Truncated() bool {
	return r.FinishReason == "length"
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
