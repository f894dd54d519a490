package server

// Server joins the HTTP servers of the separate resources.
type Server struct {
	DealServer
	HistoryServer
}

func NewServer(
	dealServer DealServer,
	historyServer HistoryServer,
) Server {
	return Server{
		DealServer:    dealServer,
		HistoryServer: historyServer,
	}
}
