package background

import (
	"fmt"
	"sync"

	"gitee.com/czyczk/medivault-sdk/internal/blobstore"
	log "github.com/sirupsen/logrus"
)

// A PinServer reinforces freshly uploaded blobs in the background.
//
// 上传中继的主写入成功后即向调用方返回；把引用在额外端点上钉住的加固
// 动作交给这里的工作单元异步完成，避免拖慢创建记录的关键路径。
type PinServer struct {
	Relay        *blobstore.UploadRelay
	wg           sync.WaitGroup
	chanQuit     chan int
	chanRef      chan string
	NumWorkers   int // The number of Go routines that will be created to perform the task. Don't change the value after creation or the server might not be able to stop as expected.
	serverStatus *backgroundServerStatus
}

// NewPinServer 用上传中继、工作单元数量与队列容量构造一个钉札加固服务器。
func NewPinServer(relay *blobstore.UploadRelay, numWorkers int, queueSize int) *PinServer {
	return &PinServer{
		Relay:        relay,
		wg:           sync.WaitGroup{},
		chanQuit:     make(chan int),
		chanRef:      make(chan string, queueSize),
		NumWorkers:   numWorkers,
		serverStatus: &backgroundServerStatus{},
	}
}

// Enqueue 把一个引用交给后台加固。队列已满时立即返回 false，不阻塞调用方。
func (s *PinServer) Enqueue(ref string) bool {
	select {
	case s.chanRef <- ref:
		return true
	default:
		return false
	}
}

// Start starts the pin server and hooks it onto the upload relay so that uploads enqueue here instead of reinforcing inline.
func (s *PinServer) Start() error {
	// Don't start the server again if it has been started.
	log.Infoln("正在启动钉札加固服务器...")

	if s.serverStatus.getIsStarting() {
		return fmt.Errorf("钉札加固服务器正在启动")
	} else if s.serverStatus.getIsStarted() {
		return fmt.Errorf("钉札加固服务器已启动")
	}

	s.serverStatus.set(true, false, false)

	s.Relay.SetPinEnqueue(s.Enqueue)

	// Start #NumWorkers Go routines with each running a worker.
	log.Tracef("正在创建 %v 个钉札加固工作单元...\n", s.NumWorkers)
	for id := 0; id < s.NumWorkers; id++ {
		s.wg.Add(1)
		go s.createPinServerWorker(id)
	}

	s.serverStatus.set(false, true, false)
	log.Infoln("钉札加固服务器已启动。")

	return nil
}

func (s *PinServer) createPinServerWorker(id int) {
	defer s.wg.Done()

	for {
		select {
		case ref := <-s.chanRef:
			log.Debugf("钉札加固工作单元 #%v 收到引用 %v。\n", id, ref)
			s.Relay.ReinforcePin(ref)
		case <-s.chanQuit:
			return
		}
	}
}

// Stop stops the pin server from reinforcing uploads. References still in the queue are dropped.
//
// Returns
//   a wait group that can be used to block the caller Go routine
func (s *PinServer) Stop() (*sync.WaitGroup, error) {
	// Don't send stop signals again if the server has already been called to stop.
	if s.serverStatus.getIsStopping() {
		return nil, fmt.Errorf("钉札加固服务器正在停止")
	} else if !s.serverStatus.getIsStarted() {
		return nil, fmt.Errorf("钉札加固服务器已停止")
	}

	s.serverStatus.set(false, true, true)

	// Start sending stop signals to all the workers
	for id := 0; id < s.NumWorkers; id++ {
		s.chanQuit <- 0
	}

	s.serverStatus.set(false, false, false)

	return &s.wg, nil
}
