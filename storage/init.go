package storage

import (
	"DignityDialogue/config"
	"DignityDialogue/storage/database"
	"DignityDialogue/storage/mq"
	"DignityDialogue/storage/redis"
)

// Component 需要初始化的存储组件
type Component int

const (
	Database Component = iota
	Redis
	MQ
)

// Init 按顺序初始化指定组件，不传时全部初始化
func Init(cfg *config.Config, components ...Component) error {
	if len(components) == 0 {
		components = []Component{Database, Redis, MQ}
	}

	for _, c := range components {
		var err error
		switch c {
		case Database:
			err = database.Init(cfg)
		case Redis:
			err = redis.Init(cfg)
		case MQ:
			err = mq.Init(cfg)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
