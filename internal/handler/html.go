package handler

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

type pairingPageData struct {
	GatewayURL string
	AccountID  string
	PairCode   string
	QRBase64   string
	ExpiresIn  int
}

var pairingPageTmpl = template.Must(template.New("pairing").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pair Dailyflows</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f5f6f8; margin: 0; display: flex; justify-content: center; }
  .card { background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,.08); margin-top: 48px; padding: 32px; max-width: 420px; text-align: center; }
  h1 { font-size: 20px; margin: 0 0 16px; }
  img { width: 256px; height: 256px; }
  code { background: #eef0f3; border-radius: 6px; padding: 2px 6px; font-size: 13px; word-break: break-all; }
  p { color: #444; font-size: 14px; }
  .meta { color: #888; font-size: 12px; margin-top: 16px; }
</style>
</head>
<body>
<div class="card">
  <h1>Pair Dailyflows</h1>
  <p>Scan this code in the Dailyflows app to connect it to this gateway.</p>
  <img src="data:image/png;base64,{{.QRBase64}}" alt="pairing QR code">
  <p>Pair code:<br><code>{{.PairCode}}</code></p>
  <p class="meta">Gateway {{.GatewayURL}} · account {{.AccountID}} · expires in {{.ExpiresIn}} minutes</p>
</div>
</body>
</html>
`))

var pairingPromptTmpl = template.Must(template.New("prompt").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pair Dailyflows</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f5f6f8; margin: 0; display: flex; justify-content: center; }
  .card { background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,.08); margin-top: 48px; padding: 32px; max-width: 420px; }
  h1 { font-size: 20px; margin: 0 0 16px; }
  p { color: #444; font-size: 14px; }
  input { width: 100%; box-sizing: border-box; padding: 8px; margin: 8px 0 16px; border: 1px solid #ccd0d5; border-radius: 6px; }
  button { background: #2f6feb; color: #fff; border: 0; border-radius: 6px; padding: 10px 18px; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
  <h1>Pair Dailyflows</h1>
  <p>This gateway could not determine its public URL. Enter the address the Dailyflows app should call back (https, or http for localhost).</p>
  <form method="get">
    <label for="gatewayUrl">Gateway URL</label>
    <input id="gatewayUrl" name="gatewayUrl" type="url" placeholder="https://gateway.example.com" required>
    {{if .AccountID}}<input type="hidden" name="accountId" value="{{.AccountID}}">{{end}}
    <button type="submit">Generate pairing code</button>
  </form>
</div>
</body>
</html>
`))

func renderPairingPage(w http.ResponseWriter, data pairingPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pairingPageTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("failed to render pairing page")
	}
}

func renderPairingPrompt(w http.ResponseWriter, accountID string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pairingPromptTmpl.Execute(w, struct{ AccountID string }{AccountID: accountID}); err != nil {
		log.Error().Err(err).Msg("failed to render pairing prompt")
	}
}
