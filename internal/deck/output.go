package deck

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
	"tools.zach/dev/lessondeck/internal/atomicfile"
)

// ///////////////////////////////////////////////
// Save
// ///////////////////////////////////////////////

// Save writes the presentation to path and returns the file size.
func Save(res *Result, path string) (int64, error) {
	w, err := ppt.NewWriter(res.Presentation, ppt.WriterPowerPoint2007)
	if err != nil {
		return 0, fmt.Errorf("create writer: %w", err)
	}
	pw, ok := w.(*ppt.PPTXWriter)
	if !ok {
		return 0, fmt.Errorf("unexpected writer type %T", w)
	}

	var buf bytes.Buffer
	if err := pw.WriteTo(&buf); err != nil {
		return 0, fmt.Errorf("write presentation: %w", err)
	}
	size := int64(buf.Len())
	if err := atomicfile.Write(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return size, nil
}

// ///////////////////////////////////////////////
// Inspect
// ///////////////////////////////////////////////

// Summary is what a saved deck contains, as read back from disk.
type Summary struct {
	Path   string
	Slides []SlideSummary
}

// SlideSummary lists the text and pictures of one slide.
type SlideSummary struct {
	Index    int
	Shapes   int
	Pictures int
	Texts    []string
}

// Inspect reads a PPTX file and summarises every slide.
func Inspect(path string) (*Summary, error) {
	reader := &ppt.PPTXReader{}
	pres, err := reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("open presentation: %w", err)
	}

	sum := &Summary{Path: path}
	for i, slide := range pres.GetAllSlides() {
		ss := SlideSummary{Index: i + 1}
		for _, shape := range slide.GetShapes() {
			ss.Shapes++
			switch s := shape.(type) {
			case *ppt.DrawingShape:
				ss.Pictures++
			case *ppt.RichTextShape:
				for _, para := range s.GetParagraphs() {
					ss.Texts = append(ss.Texts, lines(para)...)
				}
			}
		}
		sum.Slides = append(sum.Slides, ss)
	}
	return sum, nil
}

// lines returns the non-blank text of a paragraph, split at soft breaks.
func lines(para *ppt.Paragraph) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			out = append(out, t)
		}
		cur.Reset()
	}
	for _, elem := range para.GetElements() {
		switch e := elem.(type) {
		case *ppt.TextRun:
			cur.WriteString(e.GetText())
		case *ppt.BreakElement:
			flush()
		}
	}
	flush()
	return out
}

// Print writes a human-readable summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "%s: %d slides\n", s.Path, len(s.Slides))
	for _, sl := range s.Slides {
		fmt.Fprintf(w, "\nSlide %d  (%d shapes, %d pictures)\n", sl.Index, sl.Shapes, sl.Pictures)
		for _, t := range sl.Texts {
			fmt.Fprintf(w, "  %s\n", t)
		}
	}
}
