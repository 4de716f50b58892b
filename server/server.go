package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"pairchat/contract"
	"pairchat/sink"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// App serves the /ws endpoint. Every accepted connection gets its own
// registry entry and sink; its read pump drives the dispatcher and
// its close always triggers disconnect reconciliation.
type App struct {
	log        *slog.Logger
	registry   contract.IRegistry
	service    contract.IChatService
	dispatcher *Dispatcher
	http       *http.Server

	sendBufferSize int
	ctx            context.Context
}

func NewApp(log *slog.Logger, rootCtx context.Context, address string, sendBufferSize int,
	registry contract.IRegistry, service contract.IChatService) *App {
	app := &App{
		log:            log,
		registry:       registry,
		service:        service,
		dispatcher:     NewDispatcher(log, service),
		sendBufferSize: sendBufferSize,
		ctx:            rootCtx,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", app.upgradeHandler)

	app.http = &http.Server{
		Addr:    address,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return rootCtx
		},
	}
	return app
}

// Run serves until the root context is canceled, then shuts down.
func (a *App) Run() error {
	errChan := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-a.ctx.Done():
		return a.http.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.log.Error("websocket accept failed", slog.Any("error", err))
		return
	}

	var conn *Connection
	var snk contract.EventSink

	onMessage := func(ctx context.Context, raw []byte) {
		a.dispatcher.Handle(ctx, conn, snk, raw)
	}
	// Reconciliation must outlive the connection's own context, which
	// is already canceled by the time the close handler fires.
	onClose := func(connID uuid.UUID, _ error) {
		a.service.ReleaseConnection(context.Background(), connID)
	}

	conn = NewConnection(a.ctx, wsConn, a.sendBufferSize, onMessage, onClose, a.log)
	snk = sink.NewWebSocketSink(a.log, conn)

	a.registry.Register(conn.ID(), snk)
	conn.Run()
}
