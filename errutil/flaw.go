package errutil

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/xeptore/flaw/v8"
	"gopkg.in/yaml.v3"
)

func HTTPResponseFlawPayload(res *http.Response) flaw.P {
	out := make(flaw.P, 7)
	out["status"] = res.Status
	out["status_code"] = res.StatusCode
	out["content_length"] = res.ContentLength
	out["proto"] = res.Proto
	out["proto_major"] = res.ProtoMajor
	out["proto_minor"] = res.ProtoMinor
	headers := make(flaw.P, len(res.Header))
	for k, v := range res.Header {
		headers[k] = v
	}
	out["headers"] = headers
	return out
}

type Flaw struct {
	Message      string        `yaml:"message"`
	Inner        string        `yaml:"inner"`
	Records      []Record      `yaml:"records"`
	JoinedErrors []JoinedError `yaml:"joined_errors"`
	StackTrace   []StackTrace  `yaml:"stack_trace"`
}

type Record struct {
	Function string         `yaml:"function"`
	Payload  map[string]any `yaml:"payload"`
}

type JoinedError struct {
	Message          string      `yaml:"message"`
	CallerStackTrace *StackTrace `yaml:"caller_stack_trace"`
}

type StackTrace struct {
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
	Function string `yaml:"function"`
}

// FlawToYAML renders the flaw found in err's chain. Errors without a flaw are
// rendered with their message only.
func FlawToYAML(err error) ([]byte, error) {
	out := Flaw{Message: err.Error()} //nolint:exhaustruct
	if f := new(flaw.Flaw); errors.As(err, &f) {
		out.Inner = f.Inner

		out.Records = make([]Record, len(f.Records))
		for i, v := range f.Records {
			out.Records[i] = Record{
				Function: v.Function,
				Payload:  v.Payload,
			}
		}

		out.JoinedErrors = make([]JoinedError, len(f.JoinedErrors))
		for i, v := range f.JoinedErrors {
			je := JoinedError{
				Message:          v.Message,
				CallerStackTrace: nil,
			}
			if v.CallerStackTrace != nil {
				je.CallerStackTrace = &StackTrace{
					File:     v.CallerStackTrace.File,
					Line:     v.CallerStackTrace.Line,
					Function: v.CallerStackTrace.Function,
				}
			}
			out.JoinedErrors[i] = je
		}

		out.StackTrace = make([]StackTrace, len(f.StackTrace))
		for i, v := range f.StackTrace {
			out.StackTrace[i] = StackTrace{
				File:     v.File,
				Line:     v.Line,
				Function: v.Function,
			}
		}
	}

	var buf bytes.Buffer
	if err := yaml.NewEncoder(&buf).Encode(out); nil != err {
		flawP := flaw.P{"err_debug_tree": Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to encode flaw to yaml: %v", err)).Append(flawP)
	}
	return buf.Bytes(), nil
}

func IsFlaw(err error) bool {
	if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
		return true
	}
	return false
}
