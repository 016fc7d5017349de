package hostipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Handler executes one command. A returned error that implements
// KindedError is reported with its kind; any other error as internal_error.
type Handler interface {
	Handle(ctx context.Context, command string, args msgpack.RawMessage) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, command string, args msgpack.RawMessage) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, command string, args msgpack.RawMessage) (any, error) {
	return f(ctx, command, args)
}

// KindedError is an error with a stable, machine-readable kind.
type KindedError interface {
	error
	ErrorKind() string
}

// Server runs requests from a connection through a Handler. Each request
// runs on its own goroutine, so a slow command never holds up the others.
type Server struct {
	handler Handler
	logger  *slog.Logger
}

// NewServer creates a server. A nil logger uses slog.Default().
func NewServer(handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: handler, logger: logger}
}

type frameResult struct {
	payload []byte
	err     error
}

// Serve reads requests from r and writes responses to w until r is
// exhausted, a fatal frame error occurs or ctx is cancelled. It waits for
// in-flight requests before returning. A clean end of input returns nil.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	decoder := NewFrameDecoder(r)
	encoder := NewFrameEncoder(w)

	var inFlight sync.WaitGroup
	defer inFlight.Wait()

	frames := make(chan frameResult)
	go func() {
		for {
			payload, err := decoder.ReadFrame()
			select {
			case frames <- frameResult{payload: payload, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-frames:
			if frame.err != nil {
				if errors.Is(frame.err, io.EOF) {
					return nil
				}
				s.logger.Error("Host channel read failed", "error", frame.err)
				return frame.err
			}

			req, err := DecodeRequest(frame.payload)
			if err != nil {
				s.rejectUndecodable(encoder, frame.payload, err)
				continue
			}

			inFlight.Add(1)
			go func() {
				defer inFlight.Done()
				s.dispatch(ctx, encoder, req)
			}()
		}
	}
}

func (s *Server) dispatch(ctx context.Context, encoder *FrameEncoder, req *Request) {
	result, err := s.handler.Handle(ctx, req.Command, req.Args)

	var resp *Response
	if err != nil {
		resp = NewError(req.ID, errorKind(err), err.Error())
		s.logger.Debug("Command failed",
			"id", req.ID,
			"command", req.Command,
			"error", err)
	} else {
		resp, err = NewResult(req.ID, result)
		if err != nil {
			resp = NewError(req.ID, ErrorKindInternal, err.Error())
		}
	}
	s.send(encoder, resp)
}

func (s *Server) rejectUndecodable(encoder *FrameEncoder, payload []byte, cause error) {
	id, ok := recoverID(payload)
	if !ok {
		s.logger.Warn("Dropping undecodable request without id", "error", cause)
		return
	}
	s.send(encoder, NewError(id, ErrorKindBadRequest, cause.Error()))
}

func (s *Server) send(encoder *FrameEncoder, resp *Response) {
	payload, err := EncodeResponse(resp)
	if err == nil {
		err = encoder.WriteFrame(payload)
	}
	if err != nil {
		s.logger.Warn("Failed to send response", "id", resp.ID, "error", err)
	}
}

func errorKind(err error) string {
	var kinded KindedError
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	return ErrorKindInternal
}

// ListenUnix listens on a unix socket at path. A stale socket file left by
// a previous run is replaced; any other file at path is an error.
func ListenUnix(path string) (net.Listener, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSocket != 0 {
		if err := os.Remove(path); err != nil {
			return nil, err
		}
	}
	return net.Listen("unix", path)
}

// ServeListener accepts connections on ln and serves each one until ctx is
// cancelled. It closes ln before returning.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	var conns sync.WaitGroup
	defer conns.Wait()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			_ = ln.Close()
			return err
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			defer func() { _ = conn.Close() }()
			stopConn := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stopConn()
			if err := s.Serve(ctx, conn, conn); err != nil && ctx.Err() == nil {
				s.logger.Warn("Host connection ended with error", "error", err)
			}
		}()
	}
}
