package workers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/interviewly/backend/internal/models"
	mongorepo "github.com/interviewly/backend/internal/repositories/mongo"
	"github.com/interviewly/backend/internal/storage"
)

// ProctorQueue enqueues raw proctoring frames for async persistence. The
// HTTP surface returns as soon as the frame is on the stream; decoding,
// upload and the event write happen in the worker pool.
type ProctorQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *ProctorQueue) Enqueue(ctx context.Context, sessionID, userID, imageBase64 string) (string, error) {
	stream := q.Stream
	if stream == "" {
		stream = "proctor:stream"
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"session_id":   sessionID,
			"user_id":      userID,
			"image_base64": imageBase64,
		},
	}).Result()
}

type ProctorWorkerPool struct {
	Redis      *redis.Client
	Events     mongorepo.ProctorRepo
	Frames     storage.Uploader
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ProctorWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Events == nil || p.Frames == nil {
		return errors.New("ProctorWorkerPool missing dependency: Redis/Events/Frames must be set")
	}
	if p.Stream == "" {
		p.Stream = "proctor:stream"
	}
	if p.Group == "" {
		p.Group = "proctor-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ProctorWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *ProctorWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	userID := getStr("user_id")
	b64 := getStr("image_base64")
	if sessionID == "" || b64 == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})

	contentType := "image/jpeg"
	raw := b64
	if i := strings.Index(raw, ","); i >= 0 {
		// strip data:image/...;base64,
		header := raw[:i]
		if j := strings.Index(header, ":"); j >= 0 {
			if k := strings.Index(header, ";"); k > j {
				contentType = header[j+1 : k]
			}
		}
		raw = raw[i+1:]
	}

	frame, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		log.WithError(err).Warn("base64 decode failed")
		return
	}

	ext := "jpg"
	if contentType == "image/png" {
		ext = "png"
	}
	objectName := "proctor/" + sessionID + "/" + uuid.NewString() + "." + ext

	url, err := p.Frames.Upload(ctx, objectName, contentType, bytes.NewReader(frame))
	if err != nil {
		log.WithError(err).Warn("frame upload failed")
		return
	}

	ev := &models.ProctorEvent{
		SessionID: sessionID,
		UserID:    userID,
		Type:      models.ProctorSnapshot,
		ImageURL:  &url,
	}
	if err := p.Events.Append(ctx, ev); err != nil {
		log.WithError(err).Warn("event write failed")
		return
	}
	log.Debug("frame stored")
}
