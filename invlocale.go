// Package invlocale localizes investment listings.
//
// It hashes the translatable fields of a listing, produces machine
// translations for every supported non-source locale through a pluggable
// Backend, and derives the SEO fields (meta title, meta description, slug)
// of each translation. Persistence, language-aware reads and update
// reconciliation live in the internal packages of this module.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/invlocale"
//	    "github.com/ZaguanLabs/invlocale/backend"
//	    "github.com/ZaguanLabs/invlocale/cache"
//	)
//
//	func main() {
//	    b := backend.NewOpenAIBackend(backend.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    t := invlocale.NewTranslator(b,
//	        invlocale.WithCache(cache.NewInMemoryCache(3600)),
//	    )
//
//	    out, err := t.Translate(context.Background(), invlocale.TranslatableContent{
//	        Title: "Solar Farm",
//	        Category: "Energy",
//	    }, invlocale.LocaleHR)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(out.Title, out.Slug)
//	}
package invlocale
