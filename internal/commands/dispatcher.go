// Package commands exposes the stream engines to the editor host as named
// commands with camelCase msgpack arguments.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/isseis/go-wisty-fileio/internal/launch"
	"github.com/isseis/go-wisty-fileio/internal/stream"
)

// Command names understood by the dispatcher.
const (
	TakeLaunchFileArg      = "take_launch_file_arg"
	StartLaunchFileStream  = "start_launch_file_stream"
	ReadLaunchFileChunk    = "read_launch_file_chunk"
	CancelLaunchFileStream = "cancel_launch_file_stream"
	CloseLaunchFileStream  = "close_launch_file_stream"
	StartSaveFileStream    = "start_save_file_stream"
	WriteSaveFileChunk     = "write_save_file_chunk"
	FinishSaveFileStream   = "finish_save_file_stream"
	CancelSaveFileStream   = "cancel_save_file_stream"
)

type filePathArgs struct {
	FilePath string `msgpack:"filePath"`
}

type streamArgs struct {
	StreamID string `msgpack:"streamId"`
}

type readChunkArgs struct {
	StreamID string `msgpack:"streamId"`
	MaxBytes uint64 `msgpack:"maxBytes"`
}

type writeChunkArgs struct {
	StreamID  string `msgpack:"streamId"`
	TextChunk string `msgpack:"textChunk"`
}

type route func(args msgpack.RawMessage) (any, error)

// Dispatcher routes host commands to the launch slot and the stream manager.
type Dispatcher struct {
	slot    *launch.Slot
	streams *stream.Manager
	logger  *slog.Logger
	routes  map[string]route
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default().
func NewDispatcher(slot *launch.Slot, streams *stream.Manager, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{slot: slot, streams: streams, logger: logger}
	d.routes = map[string]route{
		TakeLaunchFileArg:      d.takeLaunchFileArg,
		StartLaunchFileStream:  d.startLaunchFileStream,
		ReadLaunchFileChunk:    d.readLaunchFileChunk,
		CancelLaunchFileStream: d.cancelLaunchFileStream,
		CloseLaunchFileStream:  d.closeLaunchFileStream,
		StartSaveFileStream:    d.startSaveFileStream,
		WriteSaveFileChunk:     d.writeSaveFileChunk,
		FinishSaveFileStream:   d.finishSaveFileStream,
		CancelSaveFileStream:   d.cancelSaveFileStream,
	}
	return d
}

// Commands returns the supported command names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.routes))
	for name := range d.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle runs command with msgpack-encoded args. Errors are always *Error.
func (d *Dispatcher) Handle(_ context.Context, command string, args msgpack.RawMessage) (any, error) {
	r, ok := d.routes[command]
	if !ok {
		return nil, &Error{Kind: ErrorKindUnknownCommand, Message: fmt.Sprintf("unknown command: %s", command)}
	}
	result, err := r(args)
	if err != nil {
		return nil, toCommandError(err)
	}
	return result, nil
}

func decodeArgs(args msgpack.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(args, v); err != nil {
		return &Error{Kind: ErrorKindInvalidArguments, Message: fmt.Sprintf("invalid arguments: %v", err), Err: err}
	}
	return nil
}

func (d *Dispatcher) takeLaunchFileArg(msgpack.RawMessage) (any, error) {
	pending := d.slot.Take()
	if pending == nil {
		return nil, nil
	}
	d.logger.Debug("Launch file handed to editor", "path", pending.Path, "exists", pending.Exists)
	return pending, nil
}

func (d *Dispatcher) startLaunchFileStream(raw msgpack.RawMessage) (any, error) {
	var args filePathArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return d.streams.StartRead(args.FilePath)
}

func (d *Dispatcher) readLaunchFileChunk(raw msgpack.RawMessage) (any, error) {
	var args readChunkArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	maxBytes := uint32(math.MaxUint32)
	if args.MaxBytes < math.MaxUint32 {
		maxBytes = uint32(args.MaxBytes)
	}
	return d.streams.ReadChunk(args.StreamID, maxBytes)
}

func (d *Dispatcher) cancelLaunchFileStream(raw msgpack.RawMessage) (any, error) {
	var args streamArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	d.streams.CancelRead(args.StreamID)
	return nil, nil
}

func (d *Dispatcher) closeLaunchFileStream(raw msgpack.RawMessage) (any, error) {
	var args streamArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	d.streams.CloseRead(args.StreamID)
	return nil, nil
}

func (d *Dispatcher) startSaveFileStream(raw msgpack.RawMessage) (any, error) {
	var args filePathArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return d.streams.StartWrite(args.FilePath)
}

func (d *Dispatcher) writeSaveFileChunk(raw msgpack.RawMessage) (any, error) {
	var args writeChunkArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return d.streams.WriteChunk(args.StreamID, args.TextChunk)
}

func (d *Dispatcher) finishSaveFileStream(raw msgpack.RawMessage) (any, error) {
	var args streamArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return d.streams.FinishWrite(args.StreamID)
}

func (d *Dispatcher) cancelSaveFileStream(raw msgpack.RawMessage) (any, error) {
	var args streamArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return nil, d.streams.CancelWrite(args.StreamID)
}
