package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/mathutil"
	"github.com/xeptore/reactordj/ptr"
)

const (
	maxRating        = 5
	rawRecordPreview = 256
)

// Decode turns the raw project list into the playable tracks it contains:
// records that are public and carry a non-empty audio locator, in payload
// order. An eligible record without a title or username fails the decode.
func Decode(payload []byte) ([]Track, error) {
	if !gjson.ValidBytes(payload) {
		flawP := flaw.P{"payload_preview": preview(string(payload))}
		return nil, flaw.From(errors.New("payload is not valid json")).Append(flawP)
	}

	root := gjson.ParseBytes(payload)
	if !root.IsArray() {
		flawP := flaw.P{"payload_preview": preview(root.Raw), "json_type": root.Type.String()}
		return nil, flaw.From(errors.New("payload is not a json array")).Append(flawP)
	}

	records := root.Array()
	tracks := make([]Track, 0, len(records))
	for i, rec := range records {
		if !rec.IsObject() {
			flawP := flaw.P{"record_index": i, "record": preview(rec.Raw)}
			return nil, flaw.From(fmt.Errorf("record %d is not a json object", i)).Append(flawP)
		}
		if !isPlayable(rec) {
			continue
		}
		track, err := toTrack(i, rec)
		if nil != err {
			flawP := flaw.P{"record_index": i, "record": preview(rec.Raw)}
			return nil, flaw.From(fmt.Errorf("record %d is malformed: %v", i, err)).Append(flawP)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func isPlayable(rec gjson.Result) bool {
	audio := rec.Get("audio")
	return rec.Get("isPublicProject").Type == gjson.True &&
		audio.Type == gjson.String &&
		strings.TrimSpace(audio.Str) != ""
}

func toTrack(pos int, rec gjson.Result) (Track, error) {
	title, err := requiredString(rec, "title")
	if nil != err {
		return Track{}, err
	}
	username, err := requiredString(rec, "username")
	if nil != err {
		return Track{}, err
	}

	return Track{
		ID:                 recordID(pos, rec.Get("id")),
		Title:              title,
		CreatorName:        username,
		AudioURL:           strings.TrimSpace(rec.Get("audio").Str),
		CoverImageURL:      optionalString(rec, "mainImageURL"),
		BackgroundImageURL: optionalString(rec, "backgroundImageURL"),
		LikeCount:          max(int(rec.Get("likes").Int()), 0),
		Rating:             mathutil.Clamp(rec.Get("rating").Float(), 0, maxRating),
	}, nil
}

func requiredString(rec gjson.Result, key string) (string, error) {
	v := rec.Get(key)
	switch v.Type { //nolint:exhaustive
	case gjson.String:
		if s := strings.TrimSpace(v.Str); s != "" {
			return s, nil
		}
		return "", fmt.Errorf("field %q is blank", key)
	case gjson.Null:
		if !v.Exists() {
			return "", fmt.Errorf("field %q is missing", key)
		}
		return "", fmt.Errorf("field %q is null", key)
	default:
		return "", fmt.Errorf("field %q is not a string", key)
	}
}

func optionalString(rec gjson.Result, key string) *string {
	v := rec.Get(key)
	if v.Type != gjson.String {
		return nil
	}
	return ptr.NonZero(strings.TrimSpace(v.Str))
}

func recordID(pos int, v gjson.Result) string {
	switch v.Type { //nolint:exhaustive
	case gjson.String:
		if v.Str != "" {
			return v.Str
		}
	case gjson.Number:
		return v.Raw
	}
	return fmt.Sprintf("#%d", pos)
}

func preview(s string) string {
	if len(s) > rawRecordPreview {
		return s[:rawRecordPreview] + "..."
	}
	return s
}
