// Package processor extracts translatable text from listing markup.
package processor

import "github.com/ZaguanLabs/invlocale"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = invlocale.ContentProcessor

// TextNode is an alias to the main package type.
type TextNode = invlocale.TextNode
