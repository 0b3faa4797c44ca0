package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

// JUnitReporter renders suites as JUnit XML. It is thread safe.
type JUnitReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	mu     sync.Mutex
	suites []Suite
}

func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{
		writer: writer,
		logger: observability.GetLogger().Named("junit_reporter"),
	}
}

func (r *JUnitReporter) Write(suite Suite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suites = append(r.suites, suite)
	return nil
}

// Close renders every suite and writes the document to the output writer.
func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := Document(r.suites)
	_, writeErr := doc.WriteTo(r.writer)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to write JUnit output: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Debug("Wrote JUnit report", zap.Int("suites", len(r.suites)))
	return nil
}

// Document builds the <testsuites> tree for suites.
func Document(suites []Suite) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("testsuites")

	tests, failures := 0, 0
	var total time.Duration
	for _, s := range suites {
		appendSuite(root, s)
		tests += len(s.Cases)
		failures += s.Failures()
		total += s.Duration()
	}
	root.CreateAttr("tests", strconv.Itoa(tests))
	root.CreateAttr("failures", strconv.Itoa(failures))
	root.CreateAttr("time", seconds(total))

	doc.Indent(2)
	return doc
}

func appendSuite(root *etree.Element, s Suite) {
	ts := root.CreateElement("testsuite")
	ts.CreateAttr("name", s.Name)
	ts.CreateAttr("tests", strconv.Itoa(len(s.Cases)))
	ts.CreateAttr("failures", strconv.Itoa(s.Failures()))
	ts.CreateAttr("time", seconds(s.Duration()))
	if !s.Started.IsZero() {
		ts.CreateAttr("timestamp", s.Started.UTC().Format(time.RFC3339))
	}

	for _, c := range s.Cases {
		tc := ts.CreateElement("testcase")
		tc.CreateAttr("name", c.Name)
		tc.CreateAttr("classname", s.Script)
		tc.CreateAttr("time", seconds(c.Duration))

		if c.Failed() {
			f := tc.CreateElement("failure")
			f.CreateAttr("message", c.Failure)
			f.CreateAttr("type", c.Status)
			f.SetText(c.Failure)
		}
		if len(c.Steps) > 0 {
			tc.CreateElement("system-out").SetText(strings.Join(c.Steps, "\n"))
		}
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
