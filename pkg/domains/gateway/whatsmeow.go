package gateway

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/utils"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"
)

// meowCapability implements Capability on top of whatsmeow, with a sqlite
// device store under the tenant's session directory.
type meowCapability struct {
	tenantID uint
	client   *whatsmeow.Client
	db       *sqlstore.Container
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.RWMutex
	handlers []func(evt interface{})
}

// WhatsmeowFactory returns the production capability factory.
func WhatsmeowFactory(cfg config.Gateway) CapabilityFactory {
	return func(tenantID uint, sessionDir string) (Capability, error) {
		ctx, cancel := context.WithCancel(context.Background())
		clientLog := waLog.Stdout(fmt.Sprintf("tenant_%d", tenantID), "INFO", true)

		dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode=WAL",
			filepath.Join(sessionDir, "session.db"))
		db, err := sqlstore.New(ctx, "sqlite", dsn, clientLog)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to open session store: %v", err)
		}

		deviceStore, err := db.GetFirstDevice(ctx)
		if err != nil {
			db.Close()
			cancel()
			return nil, fmt.Errorf("failed to get device: %v", err)
		}

		m := &meowCapability{
			tenantID: tenantID,
			client:   whatsmeow.NewClient(deviceStore, clientLog),
			db:       db,
			ctx:      ctx,
			cancel:   cancel,
		}
		m.client.AddEventHandler(m.translate)
		return m, nil
	}
}

func (m *meowCapability) AddEventHandler(handler func(evt interface{})) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

func (m *meowCapability) emit(evt interface{}) {
	m.mu.RLock()
	handlers := m.handlers
	m.mu.RUnlock()
	for _, handler := range handlers {
		handler(evt)
	}
}

func (m *meowCapability) Initialize() error {
	// A missing store ID means no stored credentials: start the login
	// challenge flow before connecting, as the QR channel must be obtained
	// first.
	if m.client.Store.ID == nil {
		qrChan, err := m.client.GetQRChannel(m.ctx)
		if err != nil {
			return fmt.Errorf("failed to get QR channel: %v", err)
		}
		if err := m.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %v", err)
		}
		go m.monitorQR(qrChan)
		return nil
	}

	return m.client.Connect()
}

func (m *meowCapability) monitorQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			m.emit(QRChallengeEvent{Code: evt.Code})
		case "success":
			// The Connected event follows on the main handler.
			return
		case "timeout":
			m.emit(DisconnectedEvent{Reason: "login challenge expired"})
			return
		case "error":
			m.emit(DisconnectedEvent{Reason: fmt.Sprintf("login challenge error: %v", evt.Error)})
			return
		default:
			zap.S().Debugf("tenant %d: unknown QR event %s", m.tenantID, evt.Event)
		}
	}
}

func (m *meowCapability) Destroy() {
	m.cancel()
	if m.client != nil {
		m.client.Disconnect()
	}
	if m.db != nil {
		m.db.Close()
	}
}

func (m *meowCapability) translate(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		m.emit(ReadyEvent{})
	case *events.Disconnected:
		m.emit(DisconnectedEvent{Reason: "stream closed"})
	case *events.LoggedOut:
		m.emit(AuthFailureEvent{Reason: fmt.Sprintf("logged out (reason %d)", int(v.Reason))})
	case *events.StreamReplaced:
		m.emit(DisconnectedEvent{Reason: "stream replaced by another connection"})
	case *events.Message:
		m.translateMessage(v)
	}
}

func (m *meowCapability) translateMessage(v *events.Message) {
	body := extractText(v.Message)
	isGroup := v.Info.Chat.Server == waTypes.GroupServer

	if v.Info.IsFromMe {
		m.emit(SelfMessageEvent{
			To:        canonicalAddress(v.Info.Chat),
			Body:      body,
			Timestamp: v.Info.Timestamp,
			IsGroup:   isGroup,
		})
		return
	}

	var mentions []string
	if ext := v.Message.GetExtendedTextMessage(); ext != nil {
		for _, raw := range ext.GetContextInfo().GetMentionedJID() {
			jid, err := waTypes.ParseJID(raw)
			if err != nil {
				continue
			}
			mentions = append(mentions, canonicalAddress(jid))
		}
	}

	m.emit(MessageEvent{
		From:      canonicalAddress(v.Info.Chat),
		Body:      body,
		Timestamp: v.Info.Timestamp,
		IsGroup:   isGroup,
		Mentions:  mentions,
	})
}

func (m *meowCapability) Contacts(ctx context.Context) ([]ContactInfo, error) {
	stored, err := m.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %v", err)
	}

	out := make([]ContactInfo, 0, len(stored))
	for jid, info := range stored {
		name := info.FullName
		if name == "" {
			name = info.PushName
		}
		if name == "" {
			name = info.BusinessName
		}
		out = append(out, ContactInfo{
			Address: canonicalAddress(jid),
			Name:    name,
			Phone:   jid.User,
			Kind:    constant.CONTACT_PERSONAL,
		})
	}

	groups, err := m.client.GetJoinedGroups()
	if err != nil {
		zap.S().Warnf("tenant %d: group listing failed: %v", m.tenantID, err)
		return out, nil
	}
	for _, group := range groups {
		kind := constant.CONTACT_GROUP
		if group.IsParent {
			kind = constant.CONTACT_COMMUNITY
		}
		out = append(out, ContactInfo{
			Address: canonicalAddress(group.JID),
			Name:    group.Name,
			Kind:    kind,
		})
	}

	return out, nil
}

func (m *meowCapability) ProfilePictureURL(_ context.Context, address string) (string, error) {
	jid, err := jidFromAddress(address)
	if err != nil {
		return "", err
	}
	pic, err := m.client.GetProfilePictureInfo(jid, &whatsmeow.GetProfilePictureParams{})
	if err != nil {
		return "", err
	}
	if pic == nil {
		return "", nil
	}
	return pic.URL, nil
}

func (m *meowCapability) SelfInfo(ctx context.Context) (*SelfInfo, error) {
	id := m.client.Store.ID
	if id == nil {
		return nil, fmt.Errorf("not logged in")
	}

	address := id.User + constant.PERSON_SUFFIX
	info := &SelfInfo{
		NetworkID:   address,
		DisplayName: m.client.Store.PushName,
		PhoneNumber: utils.BarePhone(address),
	}

	// Avatar fetch failure is transient, not fatal.
	if avatar, err := m.ProfilePictureURL(ctx, address); err != nil {
		zap.S().Warnf("tenant %d: own profile picture fetch failed: %v", m.tenantID, err)
	} else {
		info.AvatarURL = avatar
	}

	return info, nil
}

func (m *meowCapability) Send(ctx context.Context, address, body string, media *Media) error {
	jid, err := jidFromAddress(address)
	if err != nil {
		return err
	}

	var msg *waProto.Message
	if media != nil {
		msg, err = m.buildMediaMessage(ctx, body, media)
		if err != nil {
			return err
		}
	} else {
		msg = &waProto.Message{
			Conversation: proto.String(body),
		}
	}

	_, err = m.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	return nil
}

func (m *meowCapability) buildMediaMessage(ctx context.Context, caption string, media *Media) (*waProto.Message, error) {
	var mediaType whatsmeow.MediaType
	switch {
	case strings.HasPrefix(media.MimeType, "image/"):
		mediaType = whatsmeow.MediaImage
	case strings.HasPrefix(media.MimeType, "video/"):
		mediaType = whatsmeow.MediaVideo
	case strings.HasPrefix(media.MimeType, "audio/"):
		mediaType = whatsmeow.MediaAudio
	default:
		mediaType = whatsmeow.MediaDocument
	}

	uploaded, err := m.client.Upload(ctx, media.Data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %v", err)
	}

	switch mediaType {
	case whatsmeow.MediaImage:
		return &waProto.Message{
			ImageMessage: &waProto.ImageMessage{
				URL:           &uploaded.URL,
				Mimetype:      &media.MimeType,
				Caption:       &caption,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    &uploaded.FileLength,
				DirectPath:    &uploaded.DirectPath,
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
			},
		}, nil
	case whatsmeow.MediaVideo:
		return &waProto.Message{
			VideoMessage: &waProto.VideoMessage{
				URL:           &uploaded.URL,
				Mimetype:      &media.MimeType,
				Caption:       &caption,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    &uploaded.FileLength,
				DirectPath:    &uploaded.DirectPath,
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
			},
		}, nil
	case whatsmeow.MediaAudio:
		return &waProto.Message{
			AudioMessage: &waProto.AudioMessage{
				URL:           &uploaded.URL,
				Mimetype:      &media.MimeType,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    &uploaded.FileLength,
				DirectPath:    &uploaded.DirectPath,
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
			},
		}, nil
	default:
		return &waProto.Message{
			DocumentMessage: &waProto.DocumentMessage{
				URL:           &uploaded.URL,
				Mimetype:      &media.MimeType,
				Title:         &media.Filename,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    &uploaded.FileLength,
				DirectPath:    &uploaded.DirectPath,
				MediaKey:      uploaded.MediaKey,
				FileEncSHA256: uploaded.FileEncSHA256,
			},
		}, nil
	}
}

func extractText(msg *waProto.Message) string {
	if msg == nil {
		return ""
	}
	if msg.GetConversation() != "" {
		return msg.GetConversation()
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return "[Media or unsupported message type]"
}

// canonicalAddress maps a network JID to the gateway's canonical suffix form.
func canonicalAddress(jid waTypes.JID) string {
	if jid.Server == waTypes.GroupServer {
		return jid.User + constant.GROUP_SUFFIX
	}
	return jid.User + constant.PERSON_SUFFIX
}

// jidFromAddress parses a canonical address back into a network JID.
func jidFromAddress(address string) (waTypes.JID, error) {
	switch {
	case strings.HasSuffix(address, constant.GROUP_SUFFIX):
		return waTypes.NewJID(strings.TrimSuffix(address, constant.GROUP_SUFFIX), waTypes.GroupServer), nil
	case strings.HasSuffix(address, constant.PERSON_SUFFIX):
		user := strings.TrimSuffix(address, constant.PERSON_SUFFIX)
		if user == "" {
			return waTypes.JID{}, fmt.Errorf("invalid address %q", address)
		}
		return waTypes.NewJID(user, waTypes.DefaultUserServer), nil
	default:
		return waTypes.JID{}, fmt.Errorf("address %q is not in canonical form", address)
	}
}
