package oracle

const (
	TaskDate           = "date"
	TaskStatusCategory = "status_category"
	TaskComparison     = "comparison"
	TaskSingleProduct  = "single_product"
	TaskMatch          = "match"
	TaskPhrase         = "phrase"
)

const fieldNames = `price, cost, profit, margin, markup, inventory, dimensions, image_url`

var (
	DateTask = newTask(TaskDate, `You extract date filters from questions about a product catalog.
Return {"condition": "after"|"before"|"on", "date": "YYYY-MM-DD", "mode": "list"|"count"}.
Use "count" only when the user asks how many products match. Resolve relative dates against today's date if one is given.
If the text does not filter products by creation date return null.`, `{
  "type": "object",
  "required": ["condition", "date"],
  "properties": {
    "condition": {"type": "string", "enum": ["after", "before", "on", "since"]},
    "date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "mode": {"enum": ["list", "count", null]}
  }
}`)

	StatusCategoryTask = newTask(TaskStatusCategory, `You extract catalog filters from a question.
Return {"status": "draft"|"active"|"archived"|null, "category": string|null}.
"published" means active and "unpublished" means draft. Category is the product type or collection the user names, copied as written.
Use null for anything the user did not state.`, `{
  "type": "object",
  "properties": {
    "status": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]}
  }
}`)

	ComparisonTask = newTask(TaskComparison, `You decide whether a question compares two products.
Return {"is_comparison": true|false, "subject1": string|null, "subject2": string|null, "fields": [string]}.
Subjects are the product names or SKUs exactly as the user wrote them. Fields are chosen from: `+fieldNames+`.
Leave fields empty when the user did not name any.`, `{
  "type": "object",
  "required": ["is_comparison"],
  "properties": {
    "is_comparison": {"type": "boolean"},
    "subject1": {"type": ["string", "null"]},
    "subject2": {"type": ["string", "null"]},
    "fields": {"type": "array", "items": {"type": "string"}}
  }
}`)

	SingleProductTask = newTask(TaskSingleProduct, `You extract the product a question is about.
Return {"subject": string|null, "fields": [string]}.
Subject is the product name or SKU exactly as written, or null when no product is mentioned. Fields are chosen from: `+fieldNames+`.`, `{
  "type": "object",
  "properties": {
    "subject": {"type": ["string", "null"]},
    "fields": {"type": "array", "items": {"type": "string"}}
  }
}`)

	MatchTask = newTask(TaskMatch, `You match a user's reply to exactly one title from a candidate list.
Return {"match": string|null, "confidence": "high"|"medium"|"low"}.
The match must be copied character for character from the candidate list. Never return a title that is not in the list.
Only match on words the reply actually contains, such as a colour or interior. Do not guess.
If no candidate is clearly identified return {"match": null, "confidence": "low"}.`, `{
  "type": "object",
  "required": ["confidence"],
  "properties": {
    "match": {"type": ["string", "null"]},
    "confidence": {"type": "string", "enum": ["high", "medium", "low"]}
  }
}`)

	PhraseTask = newTask(TaskPhrase, `You turn product facts into a short, friendly answer to the user's question.
Return {"text": string}.
Copy every number, currency symbol, percent sign, unit and the word "unavailable" exactly as given. Never compute, round or invent a value.`, `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string", "minLength": 1}
  }
}`)
)
