package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

// InspectRow is one raw store record, value decoded as JSON when
// possible.
type InspectRow struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// StartInspectServer exposes the raw BadgerDB contents over HTTP for
// operators: /inspect?prefix=room: lists the persisted room
// directory, msg: and user: the other namespaces. This is the repair
// path when startup refuses a corrupt directory. Read-only.
func StartInspectServer(db *badger.DB, log *slog.Logger, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "room:"
		}

		var rows []InspectRow
		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					row := InspectRow{Key: string(item.Key())}
					if json.Valid(val) {
						row.Value = json.RawMessage(val)
					} else {
						row.Value, _ = json.Marshal(fmt.Sprintf("%d raw bytes", len(val)))
					}
					rows = append(rows, row)
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(rows)
	})

	go func() {
		addr := fmt.Sprintf("localhost:%d", port)
		log.Info("Inspect server listening", "addr", addr)
		_ = http.ListenAndServe(addr, mux)
	}()
}
