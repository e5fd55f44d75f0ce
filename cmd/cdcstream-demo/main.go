// cdcstream-demo wires a Stream up against a local MySQL/MariaDB server,
// drives the bankfixture mutation generator against it, and prints every
// accepted EmittedEvent as it is decoded.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"cdcstream"
	"cdcstream/examples/bankfixture"
)

func main() {
	_ = godotenv.Load()

	initLogging()
	defer log.Sync()

	password := os.Getenv("CDCSTREAM_DEMO_PASSWORD")
	schema := os.Getenv("CDCSTREAM_DEMO_SCHEMA")
	if schema == "" {
		schema = "cdcdemo"
	}

	writer, err := bankfixture.Open(fmt.Sprintf("root:%s@tcp(127.0.0.1:3306)/%s", password, schema))
	if err != nil {
		log.Fatal("failed to open bankfixture writer", zap.Error(err))
	}
	defer writer.Close()
	if err := writer.EnsureSchema(); err != nil {
		log.Fatal("failed to ensure bankfixture schema", zap.Error(err))
	}

	url := fmt.Sprintf("mysql://root:%s@127.0.0.1:3306", password)
	stream, err := cdcstream.New(url)
	if err != nil {
		log.Fatal("failed to construct stream", zap.Error(err))
	}

	stream.SetCheckpointer(newFileCheckpointer("cdcstream-demo.checkpoint"))
	stream.SetFilter(newSchemaAllowlistFilter(schema))

	if err := stream.Connect(); err != nil {
		log.Fatal("connect failed", zap.Error(err))
	}
	defer stream.Disconnect()

	// Emitted events are appended as one JSON line each to a rotating file,
	// separate from the operational log pingcap/log writes above: this is
	// the durable record a downstream tailer would read, so it gets its own
	// retention policy rather than interleaving with connect/error logging.
	eventLog := &lumberjack.Logger{
		Filename:   "cdcstream-demo-events.log",
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     7,
	}
	defer eventLog.Close()

	go generateMutations(writer)

	if err := stream.Rewind(); err != nil {
		log.Fatal("rewind failed", zap.Error(err))
	}

	for stream.Valid() {
		ev := stream.Current()
		log.Info("event",
			zap.String("type", ev.Type),
			zap.Int64("timestamp", ev.Timestamp),
			zap.String("checkpoint", ev.Checkpoint),
			zap.String("schema", ev.Schema),
			zap.String("table", ev.Table),
			zap.Any("before", ev.Before),
			zap.Any("after", ev.After),
		)
		if err := appendEvent(eventLog, ev); err != nil {
			log.Error("failed to append event to event log", zap.Error(err))
		}
		if err := stream.Next(); err != nil {
			log.Error("next failed", zap.Error(err))
			break
		}
	}
}

func appendEvent(w *lumberjack.Logger, ev *cdcstream.EmittedEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// generateMutations drives a small fixed sequence of account/transaction
// mutations, mirroring the teacher's test.go INSERT/UPDATE/DELETE sequence,
// so the demo has something to observe.
func generateMutations(w *bankfixture.Writer) {
	time.Sleep(2 * time.Second)

	id, err := w.CreateAccount("Ada Lovelace", 1000)
	if err != nil {
		log.Error("create account failed", zap.Error(err))
		return
	}

	time.Sleep(500 * time.Millisecond)
	if err := w.UpdateAccountBalance(id, 250); err != nil {
		log.Error("update account failed", zap.Error(err))
		return
	}

	time.Sleep(500 * time.Millisecond)
	to := sql.NullInt64{Int64: id, Valid: true}
	if _, err := w.RecordTransaction(sql.NullInt64{}, to, "deposit", 250, "initial deposit"); err != nil {
		log.Error("record transaction failed", zap.Error(err))
		return
	}

	time.Sleep(500 * time.Millisecond)
	if err := w.DeleteAccount(id); err != nil {
		log.Error("delete account failed", zap.Error(err))
	}
}

func initLogging() {
	cfg := &log.Config{
		Level: "info",
		File: log.FileLogConfig{
			Filename:   "cdcstream-demo.log",
			MaxSize:    100,
			MaxDays:    7,
			MaxBackups: 3,
		},
	}
	logger, props, err := log.InitLogger(cfg, zap.AddCaller())
	if err != nil {
		// Fall back to a bare zap logger over stderr rather than crash the
		// demo over a logging misconfiguration.
		logger = zap.NewExample()
	}
	_ = props
	log.ReplaceGlobals(logger, props)
}
