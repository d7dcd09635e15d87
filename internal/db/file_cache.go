package db

import (
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/bots-empire/ytrelay-bot/internal/model"
)

const (
	fileIDKeyPrefix = "ytrelay:file_id:"

	fileIDField = "file_id"
	titleField  = "title"
)

// FileCache remembers the Telegram file_id and title of every delivered
// video so a repeated link is re-sent without downloading again. Each video
// is a hash with a TTL.
type FileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFileCache(rdb *redis.Client, ttl time.Duration) *FileCache {
	return &FileCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *FileCache) Get(videoID string) (model.CachedVideo, error) {
	fields, err := c.rdb.HGetAll(fileIDKey(videoID)).Result()
	if err != nil {
		return model.CachedVideo{}, errors.Wrap(err, "get file id")
	}

	// A missing key comes back as an empty hash, not redis.Nil.
	fileID := fields[fileIDField]
	if fileID == "" {
		return model.CachedVideo{}, model.ErrCacheMiss
	}

	return model.CachedVideo{
		FileID: fileID,
		Title:  fields[titleField],
	}, nil
}

func (c *FileCache) Set(videoID string, video model.CachedVideo) error {
	key := fileIDKey(videoID)

	_, err := c.rdb.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Del(key)
		pipe.HMSet(key, map[string]interface{}{
			fileIDField: video.FileID,
			titleField:  video.Title,
		})
		if c.ttl > 0 {
			pipe.Expire(key, c.ttl)
		}
		return nil
	})
	return errors.Wrap(err, "set file id")
}

func (c *FileCache) Delete(videoID string) error {
	err := c.rdb.Del(fileIDKey(videoID)).Err()
	return errors.Wrap(err, "delete file id")
}

func fileIDKey(videoID string) string {
	return fileIDKeyPrefix + videoID
}
