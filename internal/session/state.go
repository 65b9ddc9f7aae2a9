package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"CCLSentinel/internal/model"
)

// document is the whole state file: chat id (decimal string) to session.
type document map[string]model.SessionState

// decodeDocument parses the state file. An empty file is an empty document.
func decodeDocument(data []byte) (document, error) {
	doc := document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt state document: %w", err)
	}
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}

func encodeDocument(doc document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
