package main

import "time"

type Config struct {
	SendBufferSize     int           `env:"SEND_BUFFER_SIZE,default=256"`
	SnapshotBufferSize int           `env:"SNAPSHOT_BUFFER_SIZE,default=1024"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	BadgerFilepath     string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel           string        `env:"LOG_LEVEL,default=info"`
	Host               string        `env:"HOST,default=localhost"`
	Port               int           `env:"PORT,default=8080"`
	InspectPort        int           `env:"INSPECT_PORT"`
}
