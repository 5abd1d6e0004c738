// Package lsp serves lexical diagnostics over the Language Server Protocol.
//
// Every open document is tokenized with an EBNF grammar; each character the
// grammar cannot match is reported as an error at its cursor position.
package lsp

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/dhamidi/charstream/charstream"
	"github.com/dhamidi/charstream/ebnflex"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"golang.org/x/exp/ebnf"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "ahi"

var log = commonlog.GetLogger("ahi.lsp")

type Server struct {
	grammar ebnf.Grammar
	handler protocol.Handler
	server  *server.Server
	version string

	mu        sync.Mutex
	documents map[string]string
}

func NewServer(grammar ebnf.Grammar, version string) *Server {
	s := &Server{
		grammar:   grammar,
		version:   version,
		documents: make(map[string]string),
	}

	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("initialized with %d grammar productions", len(s.grammar))
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(params.TextDocument.URI, params.TextDocument.Text)
	return s.publish(ctx, params.TextDocument.URI)
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		s.update(params.TextDocument.URI, textChange.Text)
	}
	return s.publish(ctx, params.TextDocument.URI)
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		s.update(params.TextDocument.URI, *params.Text)
	}
	return s.publish(ctx, params.TextDocument.URI)
}

func (s *Server) update(uri, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[uri] = text
}

func (s *Server) document(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.documents[uri]
	return text, ok
}

func (s *Server) publish(ctx *glsp.Context, uri string) error {
	text, ok := s.document(uri)
	if !ok {
		return nil
	}

	diagnostics, err := s.diagnose(uri, text)
	if err != nil {
		log.Errorf("diagnose %s: %s", uri, err)
		return nil
	}
	log.Debugf("%s: %d diagnostics", uri, len(diagnostics))

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// diagnose reports one diagnostic per error token in text.
func (s *Server) diagnose(uri, text string) ([]protocol.Diagnostic, error) {
	lexer := ebnflex.NewLexer(s.grammar, []byte(text), uriToPath(uri))
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}

	input := []rune(text)
	diagnostics := []protocol.Diagnostic{}
	for _, tok := range tokens {
		if tok.Kind != ebnflex.KindError {
			continue
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: toProtocolPosition(input, tok.Position.Position),
				End:   toProtocolPosition(input, tok.End.Position),
			},
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   strPtr(lsName),
			Message:  "unexpected character " + strconv.Quote(tok.Literal),
		})
	}
	return diagnostics, nil
}

// toProtocolPosition converts a cursor position into a zero-based line and
// a UTF-16 offset within that line.
func toProtocolPosition(input []rune, p charstream.Position) protocol.Position {
	lineStart := p.Index - (p.Column - 1)
	character := 0
	for _, ch := range input[lineStart:p.Index] {
		character += utf16.RuneLen(ch)
	}
	return protocol.Position{
		Line:      protocol.UInteger(p.Line - 1),
		Character: protocol.UInteger(character),
	}
}

func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if parsed, err := url.Parse(uri); err == nil {
			return filepath.Clean(parsed.Path)
		}
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

func severityPtr(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}
