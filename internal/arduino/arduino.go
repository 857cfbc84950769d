package arduino

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cabalhelper/internal/logger"
)

// ответ платы на каждую команду
const ackResponse = "received"

var (
	// ErrNoResponse плата не ответила за отведенное время
	ErrNoResponse = errors.New("arduino did not respond")

	// ErrUnexpectedResponse плата ответила не тем, что ожидалось
	ErrUnexpectedResponse = errors.New("unexpected arduino response")
)

// ArduinoManager отправляет команды мыши и клавиатуры на плату и ждет
// подтверждения. Команды сериализуются: протокол запрос-ответ.
type ArduinoManager struct {
	mu            sync.Mutex
	port          io.ReadWriter
	timeout       time.Duration
	loggerManager *logger.LoggerManager
}

// NewArduinoManager создает новый экземпляр ArduinoManager
func NewArduinoManager(port io.ReadWriter, timeout time.Duration, loggerManager *logger.LoggerManager) *ArduinoManager {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	return &ArduinoManager{
		port:          port,
		timeout:       timeout,
		loggerManager: loggerManager,
	}
}

// Click перемещает курсор в экранную точку и кликает левой кнопкой
func (am *ArduinoManager) Click(x, y int) error {
	return am.send(fmt.Sprintf("click:%d,%d\n", x, y))
}

// KeyDown нажимает клавишу
func (am *ArduinoManager) KeyDown(key string) error {
	return am.send(fmt.Sprintf("key_down:%s\n", key))
}

// KeyUp отпускает клавишу
func (am *ArduinoManager) KeyUp(key string) error {
	return am.send(fmt.Sprintf("key_up:%s\n", key))
}

// KeyPress нажатие и отпускание клавиши
func (am *ArduinoManager) KeyPress(key string) error {
	if err := am.KeyDown(key); err != nil {
		return err
	}
	return am.KeyUp(key)
}

// send пишет команду и ждет подтверждения
func (am *ArduinoManager) send(message string) error {
	am.mu.Lock()
	defer am.mu.Unlock()

	if _, err := am.port.Write([]byte(message)); err != nil {
		return fmt.Errorf("ошибка записи в Arduino: %w", err)
	}

	_, err := am.waitForResponse(ackResponse)
	if err != nil {
		am.loggerManager.Error("❌ Arduino не подтвердил %q: %v", bytes.TrimSpace([]byte(message)), err)
		return err
	}
	return nil
}

// waitForResponse читает строку до '\n' и сравнивает с ожидаемой
func (am *ArduinoManager) waitForResponse(expectedResponse string) (string, error) {
	deadline := time.Now().Add(am.timeout)
	var response []byte
	buf := make([]byte, 128)

	for {
		n, err := am.port.Read(buf)
		response = append(response, buf[:n]...)

		if i := bytes.IndexByte(response, '\n'); i >= 0 {
			line := string(bytes.TrimSpace(response[:i]))
			if line == expectedResponse {
				return line, nil
			}
			return "", fmt.Errorf("%w: %q", ErrUnexpectedResponse, line)
		}

		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("ошибка чтения из Arduino: %w", err)
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w за %s", ErrNoResponse, am.timeout)
		}
	}
}
