package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"newslens/internal/config"
	"newslens/internal/models"
	"newslens/internal/storage"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"github.com/pemistahl/lingua-go"
)

// Trigger starts background analysis for a newly ingested article.
type Trigger interface {
	ProcessAsync(articleID int64)
}

// Poller periodically pulls the configured news sources, stores new articles
// with a PENDING analysis record and kicks off their processing.
type Poller struct {
	storage      storage.Storage
	trigger      Trigger
	sources      map[string]config.SourceConfig
	parser       *gofeed.Parser
	detector     lingua.LanguageDetector
	pollInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	lastPolled   map[string]time.Time
	isPolling    bool
}

type feedResult struct {
	URL      string
	Articles []models.Article
	Error    error
}

func New(storage storage.Storage, trigger Trigger, sources map[string]config.SourceConfig, pollInterval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(context.Background())

	// Language detector covering the sources we commonly ingest
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.Korean, lingua.German, lingua.French,
			lingua.Spanish, lingua.Chinese, lingua.Japanese, lingua.Russian,
		).
		Build()

	return &Poller{
		storage:      storage,
		trigger:      trigger,
		sources:      sources,
		parser:       gofeed.NewParser(),
		detector:     detector,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
		lastPolled:   make(map[string]time.Time),
	}
}

func (p *Poller) Start() {
	p.mu.Lock()
	if p.isPolling {
		p.mu.Unlock()
		return
	}
	p.isPolling = true
	p.mu.Unlock()

	log.Printf("Starting news ingestion poller with interval: %v", p.pollInterval)

	p.wg.Add(1)
	go p.pollLoop()
}

func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.isPolling {
		p.mu.Unlock()
		return
	}
	p.isPolling = false
	p.mu.Unlock()

	log.Println("Stopping news ingestion poller...")
	p.cancel()
	p.wg.Wait()
	log.Println("News ingestion poller stopped")
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Poll immediately on start
	p.PollAllSources()

	for {
		select {
		case <-ticker.C:
			p.PollAllSources()
		case <-p.ctx.Done():
			return
		}
	}
}

// PollAllSources ingests every configured source once, in parallel.
func (p *Poller) PollAllSources() {
	runID := uuid.NewString()
	log.Printf("Ingestion run %s: polling %d sources", runID, len(p.sources))

	var wg sync.WaitGroup
	for source := range p.sources {
		wg.Add(1)
		go func(sourceName string) {
			defer wg.Done()
			p.pollSource(runID, sourceName)
		}(source)
	}

	wg.Wait()
	log.Printf("Ingestion run %s completed", runID)
}

func (p *Poller) pollSource(runID, source string) {
	sourceConfig, exists := p.sources[source]
	if !exists {
		log.Printf("Ingestion run %s: source '%s' not found in configuration", runID, source)
		return
	}

	articles, err := p.fetchFeedsParallel(sourceConfig.URLs, sourceConfig.Category)
	if err != nil {
		log.Printf("Ingestion run %s: error fetching source '%s': %v", runID, source, err)
		p.setLastPolled(source)
		return
	}

	ingested := 0
	for i := range articles {
		article := &articles[i]

		exists, err := p.storage.ArticleExists(article.OriginLink)
		if err != nil {
			log.Printf("Ingestion run %s: dedup check failed for %s: %v", runID, article.OriginLink, err)
			continue
		}
		if exists {
			continue
		}

		article.Language = p.detectLanguage(article.Title + " " + article.Description)

		id, err := p.storage.SaveArticle(article)
		if err != nil {
			log.Printf("Ingestion run %s: failed to save article %s: %v", runID, article.OriginLink, err)
			continue
		}

		// Fire-and-forget; outcome lands on the analysis record
		p.trigger.ProcessAsync(id)
		ingested++
	}

	if ingested > 0 {
		log.Printf("Ingestion run %s: source '%s' produced %d new articles", runID, source, ingested)
	}
	p.setLastPolled(source)
}

func (p *Poller) fetchFeedsParallel(feedURLs []string, category string) ([]models.Article, error) {
	var wg sync.WaitGroup
	results := make(chan feedResult, len(feedURLs))

	for _, url := range feedURLs {
		wg.Add(1)
		go func(feedURL string) {
			defer wg.Done()
			articles, err := p.fetchFeed(feedURL, category)
			results <- feedResult{
				URL:      feedURL,
				Articles: articles,
				Error:    err,
			}
		}(url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results with timeout
	timeout := time.After(30 * time.Second)
	var allArticles []models.Article

	for {
		select {
		case result, ok := <-results:
			if !ok {
				return allArticles, nil
			}
			if result.Error != nil {
				log.Printf("Error fetching feed %s: %v", result.URL, result.Error)
			} else {
				allArticles = append(allArticles, result.Articles...)
			}
		case <-timeout:
			log.Printf("Timeout waiting for feed results")
			return allArticles, nil
		}
	}
}

func (p *Poller) fetchFeed(url, category string) ([]models.Article, error) {
	feed, err := p.parser.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %v", err)
	}

	var articles []models.Article
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		// Prefer the full content over the summary when the feed carries it
		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}

		article := models.Article{
			Title:       item.Title,
			Description: body,
			OriginLink:  item.Link,
			Source:      feed.Title,
			Category:    category,
			PublishDate: time.Now().UTC(),
		}
		if item.PublishedParsed != nil {
			article.PublishDate = *item.PublishedParsed
		}

		articles = append(articles, article)
	}

	return articles, nil
}

func (p *Poller) detectLanguage(text string) string {
	language, ok := p.detector.DetectLanguageOf(text)
	if !ok {
		return "en"
	}
	return strings.ToLower(language.IsoCode639_1().String())
}

func (p *Poller) setLastPolled(source string) {
	p.mu.Lock()
	p.lastPolled[source] = time.Now()
	p.mu.Unlock()
}

func (p *Poller) GetLastPolledTime() map[string]time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]time.Time)
	for source, polledAt := range p.lastPolled {
		result[source] = polledAt
	}
	return result
}

func (p *Poller) IsPolling() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isPolling
}

func (p *Poller) ForcePoll(source string) error {
	log.Printf("Force polling source: %s", source)

	if _, exists := p.sources[source]; !exists {
		return fmt.Errorf("source '%s' not found", source)
	}

	p.pollSource(uuid.NewString(), source)
	return nil
}
