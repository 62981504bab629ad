package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"catalog-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAsker struct {
	asked []string
	err   error
}

func (s *scriptedAsker) Handle(_ context.Context, sessionID, utterance string) (models.ChatResponse, error) {
	s.asked = append(s.asked, sessionID+":"+utterance)
	if s.err != nil {
		return models.ChatResponse{}, s.err
	}
	return models.ChatResponse{SessionID: sessionID, Response: "answer to " + utterance}, nil
}

func TestAskOnce(t *testing.T) {
	svc := &scriptedAsker{}
	var out bytes.Buffer

	require.NoError(t, askOnce(context.Background(), svc, "s1", &out, "price of widget"))
	assert.Equal(t, "answer to price of widget\n", out.String())
	assert.Equal(t, []string{"s1:price of widget"}, svc.asked)
}

func TestRepl_ReadsUntilExit(t *testing.T) {
	svc := &scriptedAsker{}
	var out bytes.Buffer
	in := strings.NewReader("hello\n\n  price of widget  \nexit\nnever asked\n")

	require.NoError(t, repl(context.Background(), svc, "s1", in, &out))
	assert.Equal(t, []string{"s1:hello", "s1:price of widget"}, svc.asked)
	assert.Contains(t, out.String(), "answer to hello\n")
	assert.NotContains(t, out.String(), "never asked")
}

func TestRepl_StopsAtEOFAndReportsErrors(t *testing.T) {
	svc := &scriptedAsker{err: errors.New("session store down")}
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), svc, "s1", strings.NewReader("hello"), &out))
	assert.Contains(t, out.String(), "error: session store down")
}
