package mcp

import (
	"encoding/json"
)

const resourceMIME = "application/json"

// resourceDef is a read-only JSON view of the stream.
type resourceDef struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
	read        func() any
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

func addResources(s *Server) {
	store := s.stream.Store()
	s.resources = []resourceDef{
		{URI: "lifestream://snapshot", Name: "snapshot", Description: "Current channel values without derived data", read: func() any { return store.Snapshot() }},
		{URI: "lifestream://patterns", Name: "patterns", Description: "Patterns from the latest evaluation", read: func() any { return store.Patterns() }},
		{URI: "lifestream://predictions", Name: "predictions", Description: "Latest forecasts", read: func() any { return store.Predictions() }},
		{URI: "lifestream://memories", Name: "memories", Description: "Every retained memory, oldest first", read: func() any { return store.Memories(0) }},
	}
	for i := range s.resources {
		s.resources[i].MimeType = resourceMIME
	}
}

func (s *Server) listResources(json.RawMessage) (any, *rpcError) {
	return map[string]any{"resources": s.resources}, nil
}

func (s *Server) readResource(params json.RawMessage) (any, *rpcError) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.URI == "" {
		return nil, newError(codeInvalidParams, "Invalid params: resources/read needs a uri")
	}
	for _, r := range s.resources {
		if r.URI != p.URI {
			continue
		}
		data, err := json.Marshal(r.read())
		if err != nil {
			return nil, newError(codeInvalidParams, "encoding %s: %v", r.URI, err)
		}
		return map[string]any{"contents": []resourceContent{{URI: r.URI, MimeType: r.MimeType, Text: string(data)}}}, nil
	}
	return nil, newError(codeInvalidParams, "Unknown resource: %s", p.URI)
}
