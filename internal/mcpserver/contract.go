package mcpserver

// NoteFormatContract describes the stored note record so LLM consumers know
// what the tools return and accept.
const NoteFormatContract = `# nuage Note Format

The collection is a JSON array of note records, newest first. Every record has:

| field    | type            | notes                                                   |
|----------|-----------------|---------------------------------------------------------|
| id       | integer         | unique, creation time in milliseconds; never changes    |
| title    | string          | may be empty for text notes                             |
| content  | string          | text body, encoded drawing, or voice note caption       |
| date     | string          | RFC 3339 UTC with milliseconds; last edit time          |
| type     | string          | one of "text", "drawing", "audio"                       |
| url      | string          | audio only: where the recording is stored               |
| duration | string          | audio only, optional: "mm:ss"                           |
| color    | string          | optional "#RRGGBB"                                      |
| tags     | array of string | optional                                                |
| isTaskList | boolean       | optional: the note is a checklist                       |
| tasks    | array of object | optional: {"id", "text", "completed"} checklist entries |

## Rules

1. A text note needs a non-blank title or content.
2. A drawing's content starts with ` + "`" + `data:image/svg+xml;base64,` + "`" + ` followed by the
   base64 SVG. Use create_drawing_note with plain SVG; the tool encodes it.
3. An audio note needs a url. Without a recording, save the text as a text note.
4. Ids are assigned by the server. Pass them back as strings to read or delete.
5. Older records may carry dates such as "05/03/2024 09:07" (day first); they
   are kept as they are until the note is edited. A record without a type is text.
6. Fields not listed here are kept unchanged when a note is rewritten.

## Example

` + "```" + `json
{
  "id": 1717243200000,
  "title": "Groceries",
  "content": "milk, eggs",
  "date": "2024-06-01T12:00:00.000Z",
  "type": "text",
  "tags": ["home"]
}
` + "```" + `
`
