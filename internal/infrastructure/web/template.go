package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// nl2br escapes model output first, then turns newlines into <br> so the
// analysis text keeps its line structure inside the card.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"nl2br": nl2br,
}).Parse(dashboardHTML))

func renderErrorPage(w io.Writer, err error) {
	fmt.Fprintf(w, errorPageHTML, template.HTMLEscapeString(err.Error()))
}

const errorPageHTML = `<!DOCTYPE html>
<html lang="zh-TW">
<head><meta charset="utf-8"><title>六都房市 AI 戰情室</title></head>
<body>
<h1>🧠 六都房市 AI 戰情室</h1>
<p class="error-msg">系統發生錯誤：%s</p>
</body>
</html>
`

const dashboardHTML = `<!DOCTYPE html>
<html lang="zh-TW">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>六都房市 AI 戰情室</title>
<style>
    body {
        font-family: "Noto Sans TC", "Microsoft JhengHei", sans-serif;
        background-color: #f4f6f8;
        max-width: 760px;
        margin: 0 auto;
        padding: 20px;
        color: #1f1f1f;
    }
    .news-card {
        background-color: #ffffff;
        padding: 20px;
        border-radius: 10px;
        margin-bottom: 20px;
        border-left: 5px solid #2e86de;
        box-shadow: 0 2px 5px rgba(0,0,0,0.05);
    }
    .news-title {
        font-size: 20px;
        font-weight: bold;
        color: #1f1f1f;
        text-decoration: none;
        display: block;
        margin-bottom: 10px;
    }
    .news-title:hover {
        text-decoration: underline;
        color: #2e86de;
    }
    .news-meta {
        color: #666;
        font-size: 13px;
        margin-bottom: 10px;
    }
    .ai-box {
        background-color: #f8f9fa;
        border-radius: 8px;
        padding: 15px;
        margin-top: 10px;
        border: 1px solid #e9ecef;
    }
    .ai-label {
        font-weight: bold;
        color: #6c5ce7;
        margin-bottom: 5px;
        font-size: 14px;
    }
    .ai-text {
        font-size: 15px;
        line-height: 1.6;
        color: #2d3436;
    }
    .error-msg {
        color: #e17055;
        font-size: 12px;
        margin-top: 5px;
        white-space: pre-wrap;
    }
    .caption {
        color: #666;
        font-size: 13px;
        margin-bottom: 20px;
    }
    .refresh-btn {
        background-color: #2e86de;
        color: #fff;
        border: none;
        border-radius: 6px;
        padding: 8px 16px;
        font-size: 14px;
        cursor: pointer;
        margin-bottom: 20px;
    }
    .strategy-table {
        width: 100%;
        border-collapse: collapse;
        background-color: #ffffff;
        border-radius: 10px;
        overflow: hidden;
        box-shadow: 0 2px 5px rgba(0,0,0,0.05);
        margin-bottom: 20px;
    }
    .strategy-table th {
        background-color: #2e86de;
        color: #fff;
        padding: 10px;
        font-size: 14px;
        text-align: left;
    }
    .strategy-table td {
        padding: 10px;
        border-bottom: 1px solid #e9ecef;
        font-size: 14px;
        vertical-align: top;
    }
</style>
</head>
<body>
<h1>🧠 六都房市 AI 戰情室</h1>
<div class="caption">資料來源：Google News | 智能模型：Gemini Auto-Switch | 產生時間：{{.GeneratedAt.Format "01/02 15:04"}}</div>
<button class="refresh-btn" onclick="refresh(this)">🔄 強制刷新 (清除快取)</button>
{{if not .Cards}}
<p>目前沒有最新新聞。</p>
{{end}}
{{range .Cards}}
<div class="news-card">
    <a href="{{.News.Link}}" target="_blank" class="news-title">{{.News.Title}}</a>
    <div class="news-meta">📰 {{.News.Source}} | 🕒 {{.News.DisplayDate}}</div>
    {{if .Analysis}}
    <div class="ai-box">
        <div class="ai-label">✨ AI 智能解析</div>
        <div class="ai-text">{{nl2br .Analysis.Raw}}</div>
    </div>
    {{else if .AnalysisErr}}
    <div class="ai-box">
        <div class="ai-label">✨ AI 智能解析</div>
        <div class="error-msg">{{.AnalysisErr}}</div>
    </div>
    {{end}}
</div>
{{end}}
{{if .Strategy}}
<h2>📋 今日行銷策略</h2>
<table class="strategy-table">
    <tr><th>新聞標題</th><th>行銷切角</th><th>目標客群</th></tr>
    {{range .Strategy.Rows}}
    <tr><td>{{.Headline}}</td><td>{{.Angle}}</td><td>{{.Audience}}</td></tr>
    {{end}}
</table>
{{if .Strategy.Degraded}}<div class="caption">(備註：使用相容模式生成)</div>{{end}}
{{end}}
<script>
function refresh(btn) {
    btn.disabled = true;
    btn.textContent = "刷新中...";
    fetch("/api/refresh", {method: "POST"}).then(function () {
        location.reload();
    });
}
</script>
</body>
</html>
`
