package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr error
	}{
		{name: "valid", q: Question{Question: "What is docker?"}},
		{name: "with image", q: Question{Question: "What is this?", Image: "https://example.com/x.png"}},
		{name: "empty", q: Question{}, wantErr: ErrEmptyQuestion},
		{name: "whitespace", q: Question{Question: " \n\t "}, wantErr: ErrEmptyQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.q.Validate(), tt.wantErr)
		})
	}
}

func TestAnswerResultLinksNeverNull(t *testing.T) {
	data, err := json.Marshal(AnswerResult{Answer: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"x","links":[]}`, string(data))

	data, err = json.Marshal(&AnswerResult{Answer: "y", Links: []Link{{URL: "u", Text: "t"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"y","links":[{"url":"u","text":"t"}]}`, string(data))
}
