package request

import (
	"errors"
	"strings"
	"testing"

	"chattix/pkg/errorx"
)

func TestValidateSendMessage(t *testing.T) {
	ok := &SendMessageRequest{ChatID: 3, Content: "Hi"}
	if err := Validate(ok); err != nil {
		t.Fatalf("Validate(text) = %v", err)
	}
	attachmentOnly := &SendMessageRequest{ChatID: 3, AttachmentURL: "http://x/f.png"}
	if err := Validate(attachmentOnly); err != nil {
		t.Fatalf("Validate(attachment only) = %v", err)
	}

	err := Validate(&SendMessageRequest{ChatID: 3})
	if !errors.Is(err, errorx.ErrInvalidParam) {
		t.Fatalf("empty message: err = %v, want invalid param", err)
	}
	if !strings.Contains(err.Error(), "content") {
		t.Fatalf("error should name the json field, got %q", err.Error())
	}
}

func TestValidateCreateGroupRequiresMembers(t *testing.T) {
	err := Validate(&CreateGroupRequest{Name: "team", CreatedBy: 7})
	if !errors.Is(err, errorx.ErrInvalidParam) {
		t.Fatalf("no members: err = %v", err)
	}
	if err := Validate(&CreateGroupRequest{Name: "team", CreatedBy: 7, MemberIDs: []int64{8}}); err != nil {
		t.Fatalf("valid group: %v", err)
	}
}

func TestValidateAddContactRejectsSelf(t *testing.T) {
	if err := Validate(&AddContactRequest{UserID: 7, ContactUserID: 7}); err == nil {
		t.Fatalf("adding yourself should fail validation")
	}
}

func TestValidateCreateChatMembers(t *testing.T) {
	if err := Validate(&CreateChatRequest{Members: []int64{7}, IsAI: true}); err != nil {
		t.Fatalf("ai chat: %v", err)
	}
	if err := Validate(&CreateChatRequest{Members: []int64{7, 0}}); err == nil {
		t.Fatalf("zero member id should fail")
	}
	if err := Validate(&CreateChatRequest{Members: []int64{1, 2, 3}}); err == nil {
		t.Fatalf("three members should fail")
	}
}
