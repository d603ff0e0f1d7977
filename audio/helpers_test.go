package audio_test

import (
	"github.com/xeptore/reactordj/catalog"
)

func catalogOf(baseURL string) *catalog.Catalog {
	return catalog.New([]catalog.Track{
		{ //nolint:exhaustruct
			ID:          "t0",
			Title:       "first",
			CreatorName: "ana",
			AudioURL:    baseURL + "/0.mp3",
		},
		{ //nolint:exhaustruct
			ID:          "t1",
			Title:       "second",
			CreatorName: "bob",
			AudioURL:    baseURL + "/1.mp3",
		},
	})
}
