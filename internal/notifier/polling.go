package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Update is one inbound text message.
type Update struct {
	UpdateID int
	ChatID   int64
	Text     string
}

// UpdateHandler processes one update. Replies go through the notifier.
type UpdateHandler func(ctx context.Context, u Update)

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat *struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// StartPolling long-polls for updates and hands each one to handler in its
// own goroutine. Blocks until ctx is cancelled and in-flight handlers return.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler UpdateHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		for _, raw := range updates {
			offset = raw.UpdateID + 1
			if raw.Message == nil || strings.TrimSpace(raw.Message.Text) == "" {
				continue
			}
			if raw.Message.Chat == nil {
				log.Printf("[WARN] update %d has no chat, dropped", raw.UpdateID)
				continue
			}
			u := Update{UpdateID: raw.UpdateID, ChatID: raw.Message.Chat.ID, Text: strings.TrimSpace(raw.Message.Text)}
			log.Printf("[INFO] chat %d: %s", u.ChatID, u.Text)
			wg.Add(1)
			go func() {
				defer wg.Done()
				dispatch(ctx, handler, u)
			}()
		}
	}
}

// dispatch runs handler and keeps a panicking handler from killing the poller.
func dispatch(ctx context.Context, handler UpdateHandler, u Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] handler panic on update %d: %v\n%s", u.UpdateID, r, debug.Stack())
		}
	}()
	handler(ctx, u)
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.method("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read polling response: %w", err)
	}

	var result struct {
		OK          bool             `json:"ok"`
		Description string           `json:"description"`
		Result      []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: %s", result.Description)
	}
	return result.Result, nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
