package server

import (
	"html/template"
	"net/http"
)

// The index page shows a side-by-side sample of an original and an edited
// sentence so reviewers can check the service is up and rendering.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Sentence Review</title>
  <style>
    body { font-family: sans-serif; margin: 2rem auto; max-width: 48rem; }
    .pair { display: flex; gap: 1rem; }
    .pair div { flex: 1; border: 1px solid #ccc; border-radius: 4px; padding: 1rem; }
    h2 { font-size: 1rem; color: #555; }
  </style>
</head>
<body>
  <h1>Sentence Review</h1>
  <div class="pair">
    <div>
      <h2>Original</h2>
      <p>{{.Original}}</p>
    </div>
    <div>
      <h2>Edited</h2>
      <p>{{.Edited}}</p>
    </div>
  </div>
</body>
</html>
`

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Original string
		Edited   string
	}{
		Original: "The quick brown fox jumps over the lazy dog.",
		Edited:   "The quick brown fox leaped over the lazy dog.",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("failed to render index page")
	}
}
