package respond

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestMessageRespondDecodesNullSender(t *testing.T) {
	raw := `{"id":102,"chat_id":3,"sender_id":null,"content":"Hello!","is_ai":true,
		"created_at":"2024-05-01T12:00:01Z","attachment_url":null}`
	var m MessageRespond
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	msg := m.ToModel()
	if msg.SenderID != nil || !msg.IsAI || msg.Attachment != nil {
		t.Fatalf("unexpected model: %+v", msg)
	}
	if msg.CreatedAt.IsZero() {
		t.Fatalf("created_at not parsed")
	}
}

func TestMessageRespondAttachment(t *testing.T) {
	raw := `{"id":5,"chat_id":1,"sender_id":7,"content":"","is_ai":false,
		"created_at":"2024-05-01T12:00:00Z","attachment_url":"http://h/static/files/a.png",
		"attachment_type":"image/png","attachment_name":"a.png","attachment_size":42}`
	var m MessageRespond
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	msg := m.ToModel()
	if msg.SenderID == nil || *msg.SenderID != 7 {
		t.Fatalf("sender = %v", msg.SenderID)
	}
	if a := msg.Attachment; a == nil || a.MimeType != "image/png" || a.SizeBytes != 42 || a.Name != "a.png" {
		t.Fatalf("attachment = %+v", msg.Attachment)
	}
	back := FromMessage(msg)
	if back.AttachmentSize == nil || *back.AttachmentSize != 42 {
		t.Fatalf("FromMessage lost attachment size")
	}
}

func TestContactsRespondWrapsAndDedups(t *testing.T) {
	r := ContactsRespond{Contacts: []UserRespond{{ID: 2}, {ID: 2}, {ID: 4, IsOnline: true}}}
	got := r.ToModel(1)
	if len(got) != 2 || got[0].OwnerID != 1 || !got[1].Contact.IsOnline {
		t.Fatalf("ToModel = %+v", got)
	}
}

func TestChatRespondNullPreview(t *testing.T) {
	var r ChatsRespond
	raw := `{"chats":[{"id":3,"type":"ai","name":"Chattik AI","avatar":"🤖","last_message":null,"last_message_time":null}]}`
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	chats := r.ToModel()
	if len(chats) != 1 || chats[0].Kind != "ai" || chats[0].LastMessageAt != nil || chats[0].LastMessagePreview != "" {
		t.Fatalf("chats = %+v", chats)
	}
}

func TestTimestampLayouts(t *testing.T) {
	utc := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	frac := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)
	east := time.Date(2024, 5, 1, 15, 0, 0, 0, time.FixedZone("", 3*3600))
	for _, tc := range []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T12:00:00Z", utc},
		{"2024-05-01T12:00:00.123456Z", frac},
		{"2024-05-01T15:00:00+03:00", east},
		{"2024-05-01 12:00:00.123456", frac},
		{"2024-05-01 12:00:00", utc},
		{"2024-05-01T12:00:00.123456", frac},
		{"2024-05-01 15:00:00+03:00", east},
		{"2024-05-01 12:00:00.123456+00:00", frac},
	} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"`+tc.in+`"`), &ts); err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if !ts.Equal(tc.want) {
			t.Errorf("%q = %v, want %v", tc.in, ts.Time, tc.want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Errorf("expected error for unparseable timestamp")
	}
	if err := json.Unmarshal([]byte(`1714564800`), &ts); err == nil {
		t.Errorf("expected error for a numeric timestamp")
	}
}

func TestTimestampNullAndOutput(t *testing.T) {
	var u UserRespond
	if err := json.Unmarshal([]byte(`{"id":1,"last_seen":null}`), &u); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if u.LastSeen != nil || u.ToModel().LastSeenAt != nil {
		t.Fatalf("null last_seen should stay nil: %+v", u.LastSeen)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 5e6, time.UTC)
	out, err := json.Marshal(MessageRespond{ID: 1, CreatedAt: Timestamp{Time: at}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), `"created_at":"2024-05-01T12:00:00.005Z"`) {
		t.Fatalf("created_at not written as RFC 3339: %s", out)
	}
}
