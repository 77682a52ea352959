package enrich

// maxPromptHTMLChars limits how much raw page markup is sent to the
// completion service.
const maxPromptHTMLChars = 7000

// maxPromptMarkdownChars limits the supplemental markdown context.
const maxPromptMarkdownChars = 3000

// briefSystemPrompt is the system prompt for AI-assisted enrichment.
const briefSystemPrompt = `You are a venture research assistant. You produce concise, factual research briefs about companies from their website content.

Always respond with valid JSON. Do not include any text outside the JSON object.`

// briefUserPrompt is the user prompt template. Placeholders, in order:
// website URL, page title, meta description, fetch status, page content.
const briefUserPrompt = `Research this company website and produce a structured brief.

Website: %s
Page title: %s
Meta description: %s
Fetch status: %s

Page content:
---
%s
---

Respond with a JSON object containing exactly these keys:
- "summary": string, at most 2 sentences describing the company
- "whatTheyDo": array of 3-5 strings, each one concrete aspect of their product or business
- "keywords": array of 5 short lowercase strings
- "signals": array of 3 strings, each a short observation useful for investment diligence
- "sources": array of URL or label strings supporting the brief

Respond with JSON only:
{"summary":"...","whatTheyDo":[...],"keywords":[...],"signals":[...],"sources":[...]}`
