// Package importer prefills a garment registration from a shop's product
// page. Only static OpenGraph/meta tags are read; pages that require a
// scripted browser are out of scope.
package importer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// GarmentPreview is the editable draft returned to the client; nothing is
// persisted until the user confirms the registration.
type GarmentPreview struct {
	Title       string `json:"title,omitempty"`
	Brand       string `json:"brand,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"sourceUrl"`
}

type Importer struct {
	Client *http.Client
}

func New() *Importer {
	return &Importer{Client: &http.Client{Timeout: 15 * time.Second}}
}

// FetchPreview resolves shortened links, fetches the page and extracts the
// garment draft from its meta tags.
func (i *Importer) FetchPreview(ctx context.Context, url string) (*GarmentPreview, error) {
	resolved, err := i.resolveShortenedURL(ctx, url)
	if err != nil {
		resolved = url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := i.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product page returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, err
	}

	preview := &GarmentPreview{SourceURL: resolved}
	preview.Title = metaContent(doc, "og:title")
	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	preview.ImageURL = metaContent(doc, "og:image")
	preview.Description = metaContent(doc, "og:description")
	if preview.Description == "" {
		preview.Description = nameMetaContent(doc, "description")
	}
	preview.Brand = metaContent(doc, "og:site_name")
	if preview.Brand == "" {
		preview.Brand = nameMetaContent(doc, "brand")
	}

	if preview.Title == "" && preview.ImageURL == "" {
		return nil, fmt.Errorf("no product metadata found at %s", resolved)
	}
	return preview, nil
}

// resolveShortenedURL follows redirects to find the final URL.
func (i *Importer) resolveShortenedURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return url, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := i.Client.Do(req)
	if err != nil {
		return url, err
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}

func metaContent(doc *goquery.Document, property string) string {
	return strings.TrimSpace(doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).AttrOr("content", ""))
}

func nameMetaContent(doc *goquery.Document, name string) string {
	return strings.TrimSpace(doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).AttrOr("content", ""))
}
