package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	qiniu "github.com/qiniu/go-sdk/v7/storage"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/config"
)

// KodoStore stores images in a Qiniu Kodo bucket fronted by a CDN domain.
type KodoStore struct {
	mac      *qbox.Mac
	bucket   string
	domain   string
	uploader *qiniu.FormUploader
	manager  *qiniu.BucketManager
	log      zerolog.Logger
}

// NewKodoStore builds a KodoStore from config credentials.
func NewKodoStore(cfg *config.Config, log zerolog.Logger) *KodoStore {
	mac := qbox.NewMac(cfg.KodoAccessKey, cfg.KodoSecretKey)
	sc := qiniu.Config{UseHTTPS: true, UseCdnDomains: false}
	return &KodoStore{
		mac:      mac,
		bucket:   cfg.KodoBucket,
		domain:   cfg.KodoDomain,
		uploader: qiniu.NewFormUploader(&sc),
		manager:  qiniu.NewBucketManager(mac, &sc),
		log:      log.With().Str("component", "kodo_store").Logger(),
	}
}

// Save uploads data under key and returns its public URL.
func (s *KodoStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	policy := qiniu.PutPolicy{Scope: s.bucket + ":" + key}
	token := policy.UploadToken(s.mac)

	var ret qiniu.PutRet
	err := s.uploader.Put(ctx, &ret, token, key, bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return "", fmt.Errorf("kodo upload %s: %w", key, err)
	}
	return s.domain + "/" + key, nil
}

// DeletePrefix lists and deletes every object under prefix.
func (s *KodoStore) DeletePrefix(_ context.Context, prefix string) error {
	marker := ""
	for {
		entries, _, nextMarker, hasNext, err := s.manager.ListFiles(s.bucket, prefix, "", marker, 1000)
		if err != nil {
			return fmt.Errorf("kodo list %s: %w", prefix, err)
		}
		for _, e := range entries {
			if err := s.manager.Delete(s.bucket, e.Key); err != nil {
				s.log.Warn().Err(err).Str("key", e.Key).Msg("Kodo delete failed")
			}
		}
		if !hasNext {
			return nil
		}
		marker = nextMarker
	}
}
