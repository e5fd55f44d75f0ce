// Package binlogsession implements the Binlog Session (spec C7): a thin
// wrapper over go-mysql-org/go-mysql's BinlogSyncer/BinlogStreamer that
// turns a resolved Position into a running replication stream and yields
// raw (header, event) pairs.
package binlogsession

import (
	"context"
	"fmt"
	"time"

	gmysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"

	"cdcstream/internal/dialect"
	"cdcstream/internal/position"
)

// DefaultHeartbeatPeriod and DefaultReadTimeout are the spec's §4.2
// defaults, used whenever Config leaves them zero.
const (
	DefaultHeartbeatPeriod = 30 * time.Second
	DefaultReadTimeout     = 60 * time.Second
)

// Config carries the connection parameters needed to start a session.
type Config struct {
	ServerID        uint32
	Host            string
	Port            uint16
	User            string
	Password        string
	Dialect         dialect.Name
	HeartbeatPeriod time.Duration
	ReadTimeout     time.Duration
}

// Session wraps one running BinlogSyncer/BinlogStreamer pair.
type Session struct {
	syncer   *replication.BinlogSyncer
	streamer *replication.BinlogStreamer
}

// Start opens a replication session at pos and begins streaming.
func Start(cfg Config, pos position.Position) (*Session, error) {
	flavor := gmysql.MySQLFlavor
	if cfg.Dialect == dialect.MariaDB {
		flavor = gmysql.MariaDBFlavor
	}

	heartbeat := cfg.HeartbeatPeriod
	if heartbeat == 0 {
		heartbeat = DefaultHeartbeatPeriod
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}

	syncer := replication.NewBinlogSyncer(replication.BinlogSyncerConfig{
		ServerID:        cfg.ServerID,
		Flavor:          flavor,
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		HeartbeatPeriod: heartbeat,
		ReadTimeout:     readTimeout,
	})

	var streamer *replication.BinlogStreamer
	var err error

	if pos.Kind == position.KindGTID {
		gtidSet, parseErr := gmysql.ParseGTIDSet(flavor, pos.GTIDSet)
		if parseErr != nil {
			syncer.Close()
			return nil, fmt.Errorf("failed to parse GTID set %q: %w", pos.GTIDSet, parseErr)
		}
		streamer, err = syncer.StartSyncGTID(gtidSet)
	} else {
		streamer, err = syncer.StartSync(gmysql.Position{Name: pos.Filename, Pos: uint32(pos.Offset)})
	}
	if err != nil {
		syncer.Close()
		return nil, fmt.Errorf("failed to start binlog sync: %w", err)
	}

	return &Session{syncer: syncer, streamer: streamer}, nil
}

// Next blocks until the next raw binlog event arrives, or ctx is done.
func (s *Session) Next(ctx context.Context) (*replication.BinlogEvent, error) {
	return s.streamer.GetEvent(ctx)
}

// Close tears down the underlying syncer and its connection.
func (s *Session) Close() {
	s.syncer.Close()
}
