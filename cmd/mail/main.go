package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type mailTemplate struct {
	subject string
	tmpl    *template.Template
	// decode 把消息中的 data 解析成模板需要的具体类型
	decode func(data json.RawMessage) (any, error)
}

// 队列中的消息，data 延迟到确定邮件类型后再解析
type incomingMail struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

func decodeSchedulePublished(data json.RawMessage) (any, error) {
	d := domain.SchedulePublishedMailData{}
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// 邮件类型与模板的对应关系
var mailTemplateFiles = map[string]struct {
	subject string
	file    string
	decode  func(data json.RawMessage) (any, error)
}{
	"schedule_published": {
		subject: "活动排课系统 - 排课结果已发布",
		file:    "schedule_published_email.html",
		decode:  decodeSchedulePublished,
	},
}

func loadMailTemplates(dir string) (map[string]mailTemplate, error) {
	templates := make(map[string]mailTemplate, len(mailTemplateFiles))
	for mailType, t := range mailTemplateFiles {
		path := filepath.Join(dir, t.file)
		tmpl, err := template.ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", path, err)
		}
		templates[mailType] = mailTemplate{subject: t.subject, tmpl: tmpl, decode: t.decode}
	}
	return templates, nil
}

// parseMail 解析队列消息并找到对应的模板，返回的错误都表示消息本身有问题，不应重新入队
func parseMail(templates map[string]mailTemplate, body []byte) (incomingMail, mailTemplate, any, error) {
	in := incomingMail{}
	if err := json.Unmarshal(body, &in); err != nil {
		return in, mailTemplate{}, nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	t, ok := templates[in.Type]
	if !ok {
		return in, mailTemplate{}, nil, fmt.Errorf("不支持的邮件类型 %q", in.Type)
	}

	data, err := t.decode(in.Data)
	if err != nil {
		return in, mailTemplate{}, nil, fmt.Errorf("邮件数据解析失败: %w", err)
	}

	return in, t, data, nil
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		return
	}

	templates, err := loadMailTemplates("./templates")
	if err != nil {
		logger.Error("无法加载邮件模板", "error", err)
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", "error", err)
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer dialCancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", "error", err)
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 允许多个消费者
		false, // 等待 RabbitMQ 确认
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	// 一次只处理一条消息，发送失败重新入队时不会积压在本地
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}
				handleDelivery(logger, cfg, client, templates, msg)
			}
		}
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）", "queue", q.Name)
	<-sigChan

	slog.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait()
	slog.Info("mail worker 已成功关闭")
}

// handleDelivery 处理一条通知消息，格式错误的消息直接丢弃，发送失败的消息重新入队
func handleDelivery(logger *slog.Logger, cfg *config.Config, client *mail.Client, templates map[string]mailTemplate, msg amqp.Delivery) {
	logger.Info("收到消息", "size", len(msg.Body))

	in, t, data, err := parseMail(templates, msg.Body)
	if err != nil {
		logger.Error("无法处理邮件消息", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	m := mail.NewMsg()
	if err := m.From(cfg.Email.SMTP.Username); err != nil {
		logger.Error("无法设置邮件发件人", "error", err)
		_ = msg.Nack(false, false)
		return
	}
	if err := m.To(in.To); err != nil {
		logger.Error("无法设置邮件收件人", "to", in.To, "error", err)
		_ = msg.Nack(false, false)
		return
	}
	if err := m.SetBodyHTMLTemplate(t.tmpl, data); err != nil {
		logger.Error("无法设置邮件正文", "error", err)
		_ = msg.Nack(false, false)
		return
	}
	m.Subject(t.subject)

	if err := client.DialAndSend(m); err != nil {
		logger.Error("邮件发送失败", "to", in.To, "error", err)
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
	logger.Info("邮件已发送", "type", in.Type, "to", in.To)
}
