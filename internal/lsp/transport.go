package lsp

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Serve runs one LSP session over rwc and blocks until the connection
// closes. Each session gets its own Server so per-connection state
// (documents, settings) never leaks between clients.
func Serve(ctx context.Context, rwc io.ReadWriteCloser, opts Options) error {
	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := protocol.ClientDispatcher(conn, logger)
	server := NewServer(client, opts)

	conn.Go(ctx, protocol.ServerHandler(server, nil))
	<-conn.Done()
	return conn.Err()
}

// ServeStdio runs the server over stdin/stdout. Logging must go to
// stderr; stdout carries the protocol.
func ServeStdio(ctx context.Context, opts Options) error {
	return Serve(ctx, &readWriteCloser{os.Stdin, os.Stdout}, opts)
}

// ServeTCP accepts LSP connections on addr, one session per
// connection, until ctx is cancelled.
func ServeTCP(ctx context.Context, addr string, opts Options) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Listening", zap.String("transport", "tcp"), zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			if err := Serve(ctx, conn, opts); err != nil {
				logger.Warn("Session ended with error", zap.Error(err))
			}
		}()
	}
}

var upgrader = websocket.Upgrader{
	// LSP clients connect from editor processes, not browsers.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWebSocket accepts LSP sessions over websocket at addr. Each
// upgraded connection is bridged to the JSON-RPC stream through a
// message adapter.
func ServeWebSocket(ctx context.Context, addr string, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}
		if err := Serve(r.Context(), newWebsocketRWC(ws), opts); err != nil {
			logger.Warn("Session ended with error", zap.Error(err))
		}
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("Listening", zap.String("transport", "websocket"), zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// readWriteCloser joins a separate reader and writer into one
// io.ReadWriteCloser for the stdio transport.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// websocketRWC presents a message-oriented websocket as a byte
// stream. Reads drain one text message at a time; each Write sends
// one message.
type websocketRWC struct {
	conn   *websocket.Conn
	reader io.Reader
}

func newWebsocketRWC(conn *websocket.Conn) *websocketRWC {
	return &websocketRWC{conn: conn}
}

func (w *websocketRWC) Read(p []byte) (int, error) {
	for {
		if w.reader == nil {
			_, r, err := w.conn.NextReader()
			if err != nil {
				return 0, err
			}
			w.reader = r
		}
		n, err := w.reader.Read(p)
		if err == io.EOF {
			w.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (w *websocketRWC) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *websocketRWC) Close() error {
	return w.conn.Close()
}
