package store

import (
	"errors"
	"testing"
	"time"

	"chattix/internal/config"
	"chattix/pkg/errorx"
)

func openTestStore(t *testing.T) *Repositories {
	t.Helper()
	repos, err := Open(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func mustUser(t *testing.T, repos *Repositories, phone, name string) *User {
	t.Helper()
	u, err := repos.User.Upsert(phone, name, name[:1])
	if err != nil {
		t.Fatalf("Upsert(%s): %v", phone, err)
	}
	return u
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("Open with unknown driver should fail")
	}
}

func TestUserUpsertUpdatesNameOnly(t *testing.T) {
	repos := openTestStore(t)

	first := mustUser(t, repos, "+100", "Alice")
	again, err := repos.User.Upsert("+100", "Alicia", "Z")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("upsert created a new user: %d != %d", again.ID, first.ID)
	}
	if again.Name != "Alicia" || again.Avatar != "A" {
		t.Fatalf("upsert = %+v, want name updated and avatar kept", again)
	}

	_, err = repos.User.FindByPhone("+999")
	if !errors.Is(err, errorx.ErrNotFound) {
		t.Fatalf("FindByPhone missing = %v, want NotFound", err)
	}
}

func TestUserUpdateOnline(t *testing.T) {
	repos := openTestStore(t)
	u := mustUser(t, repos, "+100", "Alice")

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := repos.User.UpdateOnline(u.ID, true, at); err != nil {
		t.Fatalf("UpdateOnline: %v", err)
	}
	got, err := repos.User.FindByID(u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !got.IsOnline || got.LastSeen == nil || !got.LastSeen.Equal(at) {
		t.Fatalf("user = %+v", got)
	}

	err = repos.User.UpdateOnline(u.ID+100, true, at)
	if !errorx.IsNotFound(err) {
		t.Fatalf("UpdateOnline unknown user = %v, want NotFound", err)
	}
}

func TestContactsIdempotentAndOrderedByName(t *testing.T) {
	repos := openTestStore(t)
	me := mustUser(t, repos, "+1", "Me")
	zoe := mustUser(t, repos, "+2", "Zoe")
	bob := mustUser(t, repos, "+3", "Bob")

	for _, id := range []int64{zoe.ID, bob.ID, zoe.ID} {
		if err := repos.Contact.Add(me.ID, id); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}
	users, err := repos.Contact.ListUsers(me.ID)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Name != "Bob" || users[1].Name != "Zoe" {
		t.Fatalf("contacts = %+v", users)
	}

	others, err := repos.Contact.ListUsers(zoe.ID)
	if err != nil || len(others) != 0 {
		t.Fatalf("contacts are one-directional, got %+v, %v", others, err)
	}
}

func TestChatLookups(t *testing.T) {
	repos := openTestStore(t)
	a := mustUser(t, repos, "+1", "Ann")
	b := mustUser(t, repos, "+2", "Ben")
	c := mustUser(t, repos, "+3", "Cat")

	private := &Chat{Type: ChatTypePrivate}
	if err := repos.Chat.Create(private, []int64{a.ID, b.ID}); err != nil {
		t.Fatalf("Create private: %v", err)
	}
	ai := &Chat{Type: ChatTypeAI}
	if err := repos.Chat.Create(ai, []int64{a.ID}); err != nil {
		t.Fatalf("Create ai: %v", err)
	}

	found, err := repos.Chat.FindPrivate(b.ID, a.ID)
	if err != nil || found.ID != private.ID {
		t.Fatalf("FindPrivate = %+v, %v", found, err)
	}
	if _, err := repos.Chat.FindPrivate(a.ID, c.ID); !errorx.IsNotFound(err) {
		t.Fatalf("FindPrivate without chat = %v, want NotFound", err)
	}
	if got, err := repos.Chat.FindAI(a.ID); err != nil || got.ID != ai.ID {
		t.Fatalf("FindAI = %+v, %v", got, err)
	}
	if _, err := repos.Chat.FindAI(b.ID); !errorx.IsNotFound(err) {
		t.Fatalf("FindAI for other user = %v, want NotFound", err)
	}

	chats, err := repos.Chat.ListForUser(a.ID)
	if err != nil || len(chats) != 2 {
		t.Fatalf("ListForUser = %+v, %v", chats, err)
	}
	ids, err := repos.Chat.Participants(private.ID)
	if err != nil || len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Fatalf("Participants = %v, %v", ids, err)
	}
}

func TestGroupCreateInTransaction(t *testing.T) {
	repos := openTestStore(t)
	a := mustUser(t, repos, "+1", "Ann")
	b := mustUser(t, repos, "+2", "Ben")

	var chatID int64
	err := repos.Transaction(func(tx *Repositories) error {
		group := &Group{Name: "Team", Avatar: "👥", CreatedBy: a.ID}
		if err := tx.Group.Create(group, []int64{a.ID, b.ID}); err != nil {
			return err
		}
		chat := &Chat{Type: ChatTypeGroup, GroupID: &group.ID}
		if err := tx.Chat.Create(chat, []int64{a.ID, b.ID}); err != nil {
			return err
		}
		chatID = chat.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	chat, err := repos.Chat.FindByID(chatID)
	if err != nil || chat.GroupID == nil {
		t.Fatalf("FindByID = %+v, %v", chat, err)
	}
	group, err := repos.Group.FindByID(*chat.GroupID)
	if err != nil || group.Name != "Team" {
		t.Fatalf("group = %+v, %v", group, err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	repos := openTestStore(t)
	a := mustUser(t, repos, "+1", "Ann")

	boom := errors.New("boom")
	err := repos.Transaction(func(tx *Repositories) error {
		if err := tx.Chat.Create(&Chat{Type: ChatTypeAI}, []int64{a.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction = %v, want boom", err)
	}
	if _, err := repos.Chat.FindAI(a.ID); !errorx.IsNotFound(err) {
		t.Fatalf("rolled back chat still visible: %v", err)
	}
}

func TestMessagesOrderedByCreatedAtThenID(t *testing.T) {
	repos := openTestStore(t)
	a := mustUser(t, repos, "+1", "Ann")
	chat := &Chat{Type: ChatTypeAI}
	if err := repos.Chat.Create(chat, []int64{a.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if last, err := repos.Message.LastByChat(chat.ID); err != nil || last != nil {
		t.Fatalf("LastByChat on empty chat = %+v, %v", last, err)
	}

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []Message{
		{ID: 30, ChatID: chat.ID, SenderID: &a.ID, Content: "third", CreatedAt: t0.Add(time.Second)},
		{ID: 20, ChatID: chat.ID, Content: "second", IsAI: true, CreatedAt: t0},
		{ID: 10, ChatID: chat.ID, SenderID: &a.ID, Content: "first", CreatedAt: t0},
	}
	for i := range rows {
		if err := repos.Message.Create(&rows[i]); err != nil {
			t.Fatalf("Create message: %v", err)
		}
	}

	got, err := repos.Message.ListByChat(chat.ID)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	want := []int64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("ListByChat len = %d", len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order[%d] = %d, want %d", i, got[i].ID, id)
		}
	}
	if got[1].SenderID != nil || !got[1].IsAI {
		t.Fatalf("ai message = %+v", got[1])
	}

	last, err := repos.Message.LastByChat(chat.ID)
	if err != nil || last == nil || last.ID != 30 {
		t.Fatalf("LastByChat = %+v, %v", last, err)
	}
}
