package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"

	"github.com/rs/zerolog/log"
)

const (
	pageTitle       = "🍷 Wine Quality Classifier"
	pageDescription = "Adjust the physicochemical measurements of a red wine sample in the sidebar, then check whether the model rates it as good or bad quality."
)

type controlView struct {
	features.Control
	Value float64
	Error string
}

type pageData struct {
	Title       string
	Description string
	Available   bool
	LoadError   string
	Controls    []controlView
	Checked     bool
	Verdict     *ml.DisplayMessage
	Error       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       pageTitle,
		Description: pageDescription,
		Available:   s.classifier.Available(),
	}

	if !data.Available {
		data.LoadError = loadErrorText(s.classifier.ModelPath(), s.classifier.Err())
		s.render(w, data)
		return
	}

	query := r.URL.Query()
	raw, err := decodeForm(query)

	var fieldErrs map[string]string
	var verr *features.ValidationError
	if errors.As(err, &verr) {
		fieldErrs = verr.Fields
	} else if err != nil {
		data.Error = err.Error()
	}

	values := raw.Map()
	for _, c := range features.Controls {
		data.Controls = append(data.Controls, controlView{Control: c, Value: values[c.Name], Error: fieldErrs[c.Name]})
	}

	if query.Has("check") && err == nil {
		data.Checked = true
		resp, err := s.classify(raw)
		switch {
		case err == nil:
			data.Verdict = &resp.Verdict
		case errors.As(err, &verr):
			for i := range data.Controls {
				data.Controls[i].Error = verr.Fields[data.Controls[i].Name]
			}
			data.Error = "Some measurements are out of range."
		default:
			log.Error().Err(err).Msg("classification failed")
			data.Error = "Classification failed: " + err.Error()
		}
	}

	s.render(w, data)
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func loadErrorText(path string, err error) string {
	if errors.Is(err, ml.ErrModelNotFound) {
		return fmt.Sprintf("Model file not found at %s. Please make sure the model is trained and saved at the configured path.", path)
	}
	if err == nil {
		return "Model is not loaded."
	}
	return "Failed to load the model: " + err.Error()
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; background-color: #f5f5f5; color: #333; }
        .layout { display: flex; min-height: 100vh; }
        .sidebar { width: 320px; background: white; padding: 20px; box-shadow: 2px 0 4px rgba(0,0,0,0.1); }
        .sidebar h2 { margin-top: 0; font-size: 1.2em; }
        .main { flex: 1; padding: 30px; max-width: 900px; }
        .control { margin-bottom: 14px; }
        .control label { display: flex; justify-content: space-between; font-weight: 500; font-size: 0.9em; }
        .control input[type=range] { width: 100%; }
        .field-error { color: #dc3545; font-size: 0.8em; }
        .btn { width: 100%; padding: 10px; border: none; border-radius: 6px; background: #7b1e3a; color: white; font-size: 1em; cursor: pointer; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); margin-bottom: 20px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; }
        th { background-color: #f8f9fa; font-weight: 600; }
        .alert { padding: 15px; border-radius: 8px; font-weight: bold; }
        .alert-success { background: #d4edda; color: #155724; }
        .alert-error { background: #f8d7da; color: #721c24; }
        .hidden { display: none; }
    </style>
</head>
<body>
{{- if not .Available}}
    <div class="main">
        <h1>{{.Title}}</h1>
        <div class="alert alert-error" id="load-error">{{.LoadError}}</div>
    </div>
{{- else}}
    <div class="layout">
        <form class="sidebar" id="wine-form" method="get" action="/">
            <h2>Wine Characteristics</h2>
            {{- range .Controls}}
            <div class="control">
                <label for="{{.Name}}">{{.Label}} <output id="{{.Name}}-value">{{.Value}}</output></label>
                <input type="range" id="{{.Name}}" name="{{.Name}}" min="{{.Min}}" max="{{.Max}}" step="{{.Step}}" value="{{.Value}}">
                {{- if .Error}}<div class="field-error">{{.Error}}</div>{{end}}
            </div>
            {{- end}}
            <button class="btn" type="submit" name="check" value="1">Check Wine Quality</button>
        </form>
        <div class="main">
            <h1>{{.Title}}</h1>
            <p>{{.Description}}</p>
            <div class="card">
                <h3>Selected Wine Characteristics</h3>
                <table>
                    <thead><tr><th>Characteristic</th><th>Value</th></tr></thead>
                    <tbody>
                    {{- range .Controls}}
                        <tr><td>{{.Label}}</td><td id="{{.Name}}-cell">{{.Value}}</td></tr>
                    {{- end}}
                    </tbody>
                </table>
            </div>
            {{- if .Error}}
            <div class="alert alert-error">{{.Error}}</div>
            {{- end}}
            <div class="card{{if not .Checked}} hidden{{end}}" id="result-card">
                <h3>Analysis Result</h3>
                {{- with .Verdict}}
                <div class="alert alert-{{.Severity}}" id="verdict">{{.Icon}} {{.Text}}</div>
                {{- else}}
                <div class="alert" id="verdict"></div>
                {{- end}}
            </div>
        </div>
    </div>
    <script>
        const form = document.getElementById('wine-form');
        let ws = null;

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(proto + location.host + '/ws');
            ws.onmessage = function(event) {
                const data = JSON.parse(event.data);
                const verdict = document.getElementById('verdict');
                document.getElementById('result-card').classList.remove('hidden');
                if (data.error) {
                    verdict.className = 'alert alert-error';
                    verdict.textContent = data.error;
                    return;
                }
                verdict.className = 'alert alert-' + data.verdict.severity;
                verdict.textContent = data.verdict.icon + ' ' + data.verdict.text;
            };
            ws.onclose = function() { setTimeout(connect, 2000); };
        }

        function observation() {
            const obs = {};
            form.querySelectorAll('input[type=range]').forEach(function(input) {
                obs[input.name] = parseFloat(input.value);
            });
            return obs;
        }

        form.querySelectorAll('input[type=range]').forEach(function(input) {
            input.addEventListener('input', function() {
                document.getElementById(input.name + '-value').textContent = input.value;
                document.getElementById(input.name + '-cell').textContent = input.value;
                if (ws && ws.readyState === WebSocket.OPEN) {
                    ws.send(JSON.stringify(observation()));
                }
            });
        });

        connect();
    </script>
{{- end}}
</body>
</html>
`))
