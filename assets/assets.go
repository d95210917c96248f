// Package assets bundles the default knowledge document into the binary.
package assets

import _ "embed"

// DefaultKnowledgeBaseName is shown to users when no document was uploaded.
const DefaultKnowledgeBaseName = "WMC Due Diligence Questionnaire"

//go:embed knowledge_base.md
var DefaultKnowledgeBase string
