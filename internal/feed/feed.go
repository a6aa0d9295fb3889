// Package feed renders the RSS feed and the sitemap.
package feed

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"lukeblog/internal/cache"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"
)

const (
	// ItemLimit is the number of posts in the RSS feed.
	ItemLimit = 5

	contentNS       = "http://purl.org/rss/1.0/modules/content/"
	sitemapNS       = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapFreq     = "weekly"
	sitemapPriority = "1.0"
	defaultDesc     = "Latest posts"
)

type rssDoc struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
	ContentHTML string `xml:"content:html"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Options describe the site the feeds belong to.
type Options struct {
	SiteURL     string
	Title       string
	Description string
}

// Builder produces the syndication documents from published posts.
type Builder struct {
	posts repository.PostRepository
	store cache.Store
	opts  Options
}

func NewBuilder(posts repository.PostRepository, store cache.Store, opts Options) *Builder {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	if opts.Description == "" {
		opts.Description = defaultDesc
	}
	return &Builder{posts: posts, store: store, opts: opts}
}

func (b *Builder) absolute(path string) string {
	return b.opts.SiteURL + path
}

// RSS renders the newest published posts as RSS 2.0, each item carrying
// the rendered body in content:html.
func (b *Builder) RSS(ctx context.Context) ([]byte, error) {
	posts, _, err := b.posts.List(ctx, repository.PostFilter{}, ItemLimit, 0)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	doc := rssDoc{
		Version:   "2.0",
		ContentNS: contentNS,
		Channel: rssChannel{
			Title:       b.opts.Title,
			Link:        b.absolute("/rss/"),
			Description: b.opts.Description,
			Items:       make([]rssItem, 0, len(posts)),
		},
	}
	if len(posts) > 0 {
		doc.Channel.LastBuildDate = posts[0].CreatedAt.UTC().Format(time.RFC1123Z)
	}
	for _, p := range posts {
		link := b.absolute(service.PostTarget(p.ID))
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Desc,
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        link,
			ContentHTML: p.ContentHTML,
		})
	}
	return encode(doc)
}

// Sitemap renders the urlset of published posts. The document is cached
// for twenty minutes.
func (b *Builder) Sitemap(ctx context.Context) ([]byte, error) {
	var doc string
	err := cache.Aside(ctx, b.store, cache.SitemapKey, &doc, cache.SitemapTTL, func() error {
		posts, _, err := b.posts.List(ctx, repository.PostFilter{}, 0, 0)
		if err != nil {
			return models.NewInternalError(err)
		}
		set := urlSet{NS: sitemapNS, URLs: make([]sitemapURL, 0, len(posts))}
		for _, p := range posts {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        b.absolute(service.PostTarget(p.ID)),
				LastMod:    p.CreatedAt.UTC().Format(time.DateOnly),
				ChangeFreq: sitemapFreq,
				Priority:   sitemapPriority,
			})
		}
		raw, err := encode(set)
		if err != nil {
			return err
		}
		doc = string(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

func encode(v any) ([]byte, error) {
	raw, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return append([]byte(xml.Header), raw...), nil
}
