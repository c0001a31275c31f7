package feed

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/referer/referer/internal/attribution"
	"github.com/referer/referer/internal/httputil"
	"github.com/referer/referer/internal/youtube"
)

var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}} — Referer</title>
    <meta property="og:title" content="{{.Title}}">
    <meta property="og:type" content="video.other">
    <meta property="og:site_name" content="Referer">
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0a1628;
            color: #ffffff;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            min-height: 100vh;
            display: flex;
            flex-direction: column;
            align-items: center;
        }
        .container {
            max-width: 960px;
            width: 100%;
            padding: 2rem 1rem;
        }
        .player {
            position: relative;
            width: 100%;
            aspect-ratio: 16 / 9;
            border-radius: 8px;
            overflow: hidden;
            background: #000;
        }
        .player iframe {
            position: absolute;
            inset: 0;
            width: 100%;
            height: 100%;
            border: 0;
        }
        h1 {
            margin-top: 1rem;
            font-size: 1.5rem;
            font-weight: 600;
        }
        .creator {
            margin-top: 0.5rem;
            color: #94a3b8;
            font-size: 0.875rem;
        }
        .creator .badge {
            color: #00b67a;
        }
        .sources {
            margin-top: 1.5rem;
            list-style: none;
        }
        .sources li {
            padding: 0.75rem;
            border-bottom: 1px solid #1e293b;
        }
        .sources .ts {
            color: #00b67a;
            font-variant-numeric: tabular-nums;
            cursor: pointer;
            background: none;
            border: none;
            font: inherit;
            padding: 0;
        }
        .sources .claim { margin-left: 0.5rem; }
        .sources .origin {
            margin-left: 0.5rem;
            font-size: 0.75rem;
            color: #64748b;
        }
        .sources a { color: #94a3b8; }
        .empty {
            margin-top: 1.5rem;
            color: #64748b;
        }
        .branding {
            margin-top: 2rem;
            font-size: 0.75rem;
            color: #64748b;
        }
        .branding a { color: #00b67a; text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <div class="player">
            <iframe id="player" src="{{.EmbedURL}}" allow="autoplay; encrypted-media" allowfullscreen></iframe>
        </div>
        <h1>{{.Title}}</h1>
        {{if .CreatorName}}<p class="creator">Citations verified by <span class="badge">{{.CreatorName}}</span></p>{{end}}
        {{if .Sources}}
        <ul class="sources">
            {{range .Sources}}
            <li>
                <button class="ts" data-seconds="{{.TimestampSeconds}}">{{.Timestamp}}</button>
                <span class="claim">{{.Claim}}</span>
                <span class="origin">{{.Attribution}}</span>
                — <a href="{{.SourceURL}}" rel="noopener noreferrer" target="_blank">source</a>
            </li>
            {{end}}
        </ul>
        {{else}}
        <p class="empty">No sources registered for this video yet.</p>
        {{end}}
        <p class="branding">Citations via <a href="{{.BaseURL}}">Referer</a></p>
    </div>
    <script nonce="{{.Nonce}}">
        var frame = document.getElementById('player');
        function seekTo(seconds) {
            frame.contentWindow.postMessage(JSON.stringify({
                event: 'command',
                func: 'seekTo',
                args: [seconds, true]
            }), 'https://www.youtube.com');
        }
        document.querySelectorAll('.ts').forEach(function(btn) {
            btn.addEventListener('click', function() {
                seekTo(parseInt(btn.dataset.seconds, 10));
            });
        });
    </script>
</body>
</html>`))

type viewerData struct {
	Title       string
	EmbedURL    string
	CreatorName string
	Sources     []feedSource
	BaseURL     string
	Nonce       string
}

// ViewerPage renders the public citation viewer a deep link points at. The
// ?t= query preloads the embed at that offset; invalid values fall back to
// the start of the video.
func (h *Handler) ViewerPage(w http.ResponseWriter, r *http.Request) {
	youtubeID := chi.URLParam(r, "youtubeID")
	if !youtube.IsValidID(youtubeID) {
		http.NotFound(w, r)
		return
	}

	start := 0
	if t := r.URL.Query().Get("t"); t != "" {
		if parsed, err := strconv.Atoi(t); err == nil && parsed > 0 {
			start = parsed
		}
	}

	data := viewerData{
		Title:    "YouTube Video",
		EmbedURL: youtube.EmbedURL(youtubeID, h.baseURL, start),
		BaseURL:  h.baseURL,
		Nonce:    httputil.NonceFromContext(r.Context()),
	}

	var videoID, ownerID string
	var channelID *string
	err := h.db.QueryRow(r.Context(),
		`SELECT id, user_id, title, youtube_channel_id FROM videos WHERE youtube_id = $1`,
		youtubeID,
	).Scan(&videoID, &ownerID, &data.Title, &channelID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err == nil {
		creator, err := h.loadCreator(r, ownerID)
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if creator != nil && creator.Name != nil {
			data.CreatorName = *creator.Name
		}

		ownership := attribution.VideoOwnership{OwnerUserID: ownerID, ChannelID: channelID}
		var verified *attribution.VerifiedChannel
		if creator != nil {
			verified = &attribution.VerifiedChannel{ChannelID: creator.ChannelID}
		}
		data.Sources, err = h.loadSources(r, videoID, ownership, verified)
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewerTemplate.Execute(w, data); err != nil {
		log.Printf("failed to render viewer page: %v", err)
	}
}
