package generation

import "fmt"

const systemPrompt = "You are an expert educational content producer. You turn raw " +
	"video transcripts into polished study material. Respond with the requested " +
	"artifact only, no preamble."

// promptFor builds the user prompt for a content type. Unknown types get a
// generic instruction so new types degrade gracefully instead of failing.
func promptFor(contentType, title, transcript string) string {
	var instruction string
	switch contentType {
	case "summary_text":
		instruction = "Write a concise summary (3-5 paragraphs) of the following video transcript."
	case "study_guide":
		instruction = "Write a structured study guide with key concepts, definitions, and review questions for the following video transcript."
	case "quiz":
		instruction = "Write a 10-question multiple-choice quiz (with an answer key at the end) covering the following video transcript."
	case "titles":
		instruction = "Suggest 8 compelling alternative titles for the video with the following transcript. One per line."
	case "thumbnails":
		instruction = "Describe 5 thumbnail concepts (composition, text overlay, mood) for the video with the following transcript. One per line."
	default:
		instruction = fmt.Sprintf("Produce a %q artifact from the following video transcript.", contentType)
	}
	return fmt.Sprintf("%s\n\nVideo title: %s\n\nTranscript:\n%s", instruction, title, transcript)
}
