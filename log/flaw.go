package log

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
)

// Flaw renders err into the event. A *flaw.Flaw anywhere in the chain is
// expanded into its records, joined errors and stack traces.
func Flaw(err error) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		flawErr := new(flaw.Flaw)
		if !errors.As(err, &flawErr) {
			e.Err(err)
			return
		}

		e.Dict(
			"error",
			zerolog.
				Dict().
				Str("message", err.Error()).
				Str("inner", flawErr.Inner).
				Str("type_name", flawErr.InnerType).
				Str("syntax_representation", flawErr.InnerSyntaxRepr),
		)

		records := zerolog.Arr()
		for _, v := range flawErr.Records {
			b, err := json.MarshalWithOption(v.Payload, json.UnorderedMap(), json.DisableNormalizeUTF8(), json.DisableHTMLEscape())
			if nil != err {
				records.Dict(zerolog.Dict().Str("function", v.Function).Dict("payload", zerolog.Dict().Str("error", err.Error()).Str("raw", fmt.Sprintf("%#+v", v.Payload))))
				continue
			}
			records.Dict(zerolog.Dict().Str("function", v.Function).RawJSON("payload", b))
		}
		e.Array("records", records)

		joined := zerolog.Arr()
		for _, v := range flawErr.JoinedErrors {
			d := zerolog.
				Dict().
				Dict(
					"error",
					zerolog.
						Dict().
						Str("message", v.Message).
						Str("type_name", v.TypeName).
						Str("syntax_representation", v.SyntaxRepr),
				)
			if st := v.CallerStackTrace; nil != st {
				d.Dict("caller_stack_trace", stackTraceDict(st.File, st.Line, st.Function))
			} else {
				d.Stringer("caller_stack_trace", nil)
			}
			joined.Dict(d)
		}
		e.Array("joined_errors", joined)

		stackTraces := zerolog.Arr()
		for _, v := range flawErr.StackTrace {
			stackTraces.Dict(stackTraceDict(v.File, v.Line, v.Function))
		}
		e.Array("stack_traces", stackTraces)
	}
}

func stackTraceDict(file string, line int, function string) *zerolog.Event {
	return zerolog.
		Dict().
		Str("location", fmt.Sprintf("%s:%d", file, line)).
		Str("function", function)
}
