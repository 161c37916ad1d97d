package models

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrEmptyQuestion = errors.New("question cannot be empty")

// Question is the inbound request: question text plus an optional image,
// given either as an http(s) URL or as base64 bytes.
type Question struct {
	Question string `json:"question" description:"Question to answer"`
	Image    string `json:"image,omitempty" description:"Optional image as URL or base64 payload"`
}

func (q *Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

type Link struct {
	URL  string `json:"url" description:"Source URL"`
	Text string `json:"text" description:"Short description or quote of the source"`
}

type AnswerResult struct {
	Answer string `json:"answer" description:"Answer text"`
	Links  []Link `json:"links" description:"Cited sources"`
}

// MarshalJSON always encodes links as an array.
func (a AnswerResult) MarshalJSON() ([]byte, error) {
	type alias AnswerResult
	out := alias(a)
	if out.Links == nil {
		out.Links = []Link{}
	}
	return json.Marshal(out)
}

// Message builds a result without links, used for refusals and errors.
func Message(answer string) AnswerResult {
	return AnswerResult{
		Answer: answer,
		Links:  []Link{},
	}
}
