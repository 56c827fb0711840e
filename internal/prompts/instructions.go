package prompts

import (
	"fmt"
	"strings"
)

const classifyInstructions = `You are reviewing the first page of a scanned Spanish training-subsidy form.

You will be given the list of known form templates by name. Compare the page layout, headings, and field labels against the catalog and decide which template this page was printed from.

Respond with JSON only:
{"template": "<template name>", "confidence": <0.0-1.0>, "rationale": "<one sentence>"}

The confidence must reflect how certain you are of the template identity, not the scan quality. If the page matches no known template, pick the closest candidate and report a low confidence.`

// IllegibleSentinel is the value the extraction prompt demands for unreadable
// content. The extract node treats it as a failed region.
const IllegibleSentinel = "ILEGIBLE"

const extractTextInstructions = `You are transcribing one cropped field region from a scanned Spanish training-subsidy form.

Transcribe exactly the handwritten or printed value visible in the image. Do not guess missing characters. Preserve digits and letters as written; ignore stamps and background ruling.

Respond with JSON only:
{"value": "<transcription>"}

If the region is empty, respond with an empty value. If the content cannot be read, respond with the exact value "` + IllegibleSentinel + `".`

const extractCheckboxInstructions = `You are reading one cropped checkbox region from a scanned Spanish training-subsidy form.

Decide whether the checkbox is marked (any cross, tick, or fill counts as marked).

Respond with JSON only:
{"value": "marcado"} or {"value": "no_marcado"}`

const verifyInstructions = `Examine this scanned Spanish training-subsidy form and locate the four identifying codes printed or written on it:

1. The case file number (expediente), usually a letter followed by digits, near the top of the form.
2. The training action number (accion formativa).
3. The group number (grupo).
4. The company tax identifier (NIF/CIF).

Read each code character by character from the page itself. Do not infer a value from context; if a code is absent or unreadable, return it empty.

Respond with JSON only:
{"expediente": "", "accion": "", "grupo": "", "nif": ""}`

var instructions = map[Stage]string{
	StageClassify: classifyInstructions,
	StageExtract:  extractTextInstructions,
	StageVerify:   verifyInstructions,
}

// Instructions returns the base instruction text for a pipeline stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// ComposeClassify appends the template catalog names to the classify instructions.
func ComposeClassify(templateNames []string) string {
	var b strings.Builder
	b.WriteString(classifyInstructions)
	b.WriteString("\n\nKnown templates:\n")
	for _, name := range templateNames {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return b.String()
}

// ComposeExtract returns the extraction prompt for a region. Checkbox regions
// use the binary marked/not-marked contract; text regions the transcription
// contract. The region label gives the model the expected field semantics.
func ComposeExtract(label string, checkbox bool) string {
	base := extractTextInstructions
	if checkbox {
		base = extractCheckboxInstructions
	}
	return fmt.Sprintf("%s\n\nField: %s", base, label)
}

// ComposeVerify returns the independent critical-field re-extraction prompt.
// Its wording deliberately shares no phrasing with the per-region extraction
// prompt so transcription errors do not correlate across passes.
func ComposeVerify() string {
	return verifyInstructions
}
