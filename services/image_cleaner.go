package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-projects-backend/errs"
)

// ImageCleaner removes images left behind by deleted projects. Removal runs in
// the background, is attempted once and only ever logs failures.
type ImageCleaner struct {
	remover ImageRemover
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewImageCleaner returns a cleaner for remover. A nil remover disables cleanup.
func NewImageCleaner(remover ImageRemover, timeout time.Duration) *ImageCleaner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ImageCleaner{
		remover: remover,
		timeout: timeout,
		log:     log.With().Str("component", "imageCleaner").Logger(),
	}
}

// Schedule starts removal of image when it is hosted by the remover and
// reports whether a removal was started.
func (c *ImageCleaner) Schedule(image *string) bool {
	if c == nil || c.remover == nil || image == nil || *image == "" {
		return false
	}

	imageURL := *image
	if !c.remover.Owns(imageURL) {
		c.log.Debug().Str("image", imageURL).Msg("Image not hosted externally, skipping cleanup")
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.remover.Delete(ctx, imageURL); err != nil {
			if !errs.IsUpstreamSideEffectError(err) {
				err = errs.NewUpstreamError("image host", "delete image", err)
			}
			c.log.Error().Err(err).Str("image", imageURL).Msg("Image cleanup failed")
			return
		}
		c.log.Info().Str("image", imageURL).Msg("Image removed")
	}()
	return true
}

// Wait blocks until every scheduled removal has finished.
func (c *ImageCleaner) Wait() {
	if c == nil {
		return
	}
	c.wg.Wait()
}
