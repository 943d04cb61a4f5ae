package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/infra/cache"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replay"
	maxIdempotencyKeyLength = 128
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency guarda a primeira resposta de um POST com Idempotency-Key e a
// repete nas tentativas seguintes. Store nil desliga o middleware.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if store == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			httperr.BadRequest(c, "invalid_idempotency_key", "Idempotency-Key muito longa.")
			return
		}

		storeKey := fmt.Sprintf("idem:%d:%s:%s:%s", UserID(c), c.Request.Method, c.Request.URL.Path, key)
		ctx := c.Request.Context()

		cached, inFlight, err := store.Begin(ctx, storeKey, ttl)
		if err != nil {
			// sem redis a requisição segue sem proteção
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if inFlight {
			httperr.Conflict(c, "request_in_progress", "Requisição com esta chave ainda em processamento.")
			return
		}
		if cached != nil {
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		// panic no handler libera a chave e segue para o Recovery
		defer func() {
			if p := recover(); p != nil {
				releaseKey(store, storeKey, log)
				panic(p)
			}
		}()

		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			releaseKey(store, storeKey, log)
			return
		}

		// contexto próprio: a requisição pode ter sido cancelada pelo cliente
		saveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp := cache.StoredResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := store.Save(saveCtx, storeKey, resp, ttl); err != nil {
			log.Warn("idempotency save failed", zap.Error(err))
		}
	}
}

func releaseKey(store cache.IdempotencyStore, key string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Release(ctx, key); err != nil {
		log.Warn("idempotency release failed", zap.Error(err))
	}
}
